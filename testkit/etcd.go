package testkit

import (
	"context"
	"testing"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// etcdEndpoint 默认连接本机 etcd
const etcdEndpoint = "localhost:2379"

// NewEtcdClient 返回连接本机 etcd 的客户端。
// etcd 不可达时跳过当前测试。
func NewEtcdClient(t *testing.T) *clientv3.Client {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{etcdEndpoint},
		DialTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Skipf("etcd 不可用，跳过: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Status(ctx, etcdEndpoint); err != nil {
		_ = client.Close()
		t.Skipf("etcd 不可用，跳过: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}
