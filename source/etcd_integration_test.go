//go:build integration

package source

import (
	"context"
	"testing"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/cascade/testkit"
	"github.com/ceyewan/cascade/value"
)

// TestEtcdLoader 测试从 etcd 按前缀拉取配置片段（需要本机 etcd）
func TestEtcdLoader(t *testing.T) {
	client := testkit.NewEtcdClient(t)
	prefix := "/cascade-test-" + testkit.NewID()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seed := map[string]string{
		prefix + "/db/host": "etcd-host",
		prefix + "/db/port": "5432",
		prefix + "/debug":   "true",
	}
	for k, v := range seed {
		if _, err := client.Put(ctx, k, v); err != nil {
			t.Fatalf("写入种子数据失败: %v", err)
		}
	}
	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer ccancel()
		_, _ = client.Delete(cctx, prefix, clientv3.WithPrefix())
	})

	loader := Etcd(client, prefix, 200, WithRequired())
	frag, err := loader.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := value.GetOr(frag.Data, "db.host", nil); got != value.String("etcd-host") {
		t.Errorf("db.host = %v", got)
	}
	// 值按 YAML 解析，数字和布尔得到原生类型
	if got := value.GetOr(frag.Data, "db.port", nil); got != value.Number(5432) {
		t.Errorf("db.port = %v", got)
	}
	if got := value.GetOr(frag.Data, "debug", nil); got != value.Bool(true) {
		t.Errorf("debug = %v", got)
	}
}
