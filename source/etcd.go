package source

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/sony/gobreaker/v2"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/cascade/merge"
	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// etcdLoader 远程配置加载器，从 etcd 按键前缀拉取片段。
//
// 拉取包在熔断器里：连续失败（典型场景是 Watch 轮询期间
// 远端不可用）会让熔断器打开，后续加载快速失败，
// 避免每轮都去撞已经不可用的远端。
type etcdLoader struct {
	loaderBase
	client  *clientv3.Client
	prefix  string
	breaker *gobreaker.CircuitBreaker[*clientv3.GetResponse]
}

// Etcd 创建 etcd 远程加载器。
//
// keyPrefix 下的每个键剥掉前缀后按 "/" 展开成嵌套路径，
// 值按 YAML 解析（标量和结构都支持）：
//
//	/app/db/host = "localhost"   =>  {db: {host: "localhost"}}
//	/app/db      = "{port: 5432}" =>  {db: {port: 5432}}
func Etcd(client *clientv3.Client, keyPrefix string, priority int, opts ...Option) Loader {
	breaker := gobreaker.NewCircuitBreaker[*clientv3.GetResponse](gobreaker.Settings{
		Name:    "cascade-etcd",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &etcdLoader{
		loaderBase: newBase("etcd:"+keyPrefix, priority, opts...),
		client:     client,
		prefix:     keyPrefix,
		breaker:    breaker,
	}
}

func (l *etcdLoader) Load(ctx context.Context) (merge.Fragment, error) {
	resp, err := l.breaker.Execute(func() (*clientv3.GetResponse, error) {
		return l.client.Get(ctx, l.prefix, clientv3.WithPrefix())
	})
	if err != nil {
		return merge.Fragment{}, xerrors.Wrapf(err, "etcd get prefix %s", l.prefix)
	}

	var doc value.Value = value.Map{}
	for _, kv := range resp.Kvs {
		key := strings.TrimPrefix(string(kv.Key), l.prefix)
		key = strings.Trim(key, "/")
		if key == "" {
			continue
		}
		path := strings.ReplaceAll(key, "/", ".")

		var raw any
		if err := yaml.Unmarshal(kv.Value, &raw); err != nil {
			// 非法 YAML 按原始字符串处理
			raw = string(kv.Value)
		}

		doc, err = value.Set(doc, path, value.FromAny(raw))
		if err != nil {
			return merge.Fragment{}, xerrors.Wrapf(err, "etcd key %s", kv.Key)
		}
	}

	return merge.Fragment{
		Source:   l.name,
		Priority: l.priority,
		LoadedAt: time.Now(),
		Data:     doc,
	}, nil
}
