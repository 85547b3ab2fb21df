package source

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/ceyewan/cascade/merge"
	"github.com/ceyewan/cascade/value"
)

// envLoader 环境变量加载器
type envLoader struct {
	loaderBase
	prefix string
}

// Env 创建环境变量加载器。
//
// 只采集 <PREFIX>_ 开头的变量，剥掉前缀后按 "_" 展开成嵌套键：
//
//	APP_DB_HOST=localhost  =>  {db: {host: "localhost"}}
//
// prefix 为空时采集全部变量。
func Env(prefix string, priority int, opts ...Option) Loader {
	return &envLoader{
		loaderBase: newBase("env", priority, opts...),
		prefix:     strings.ToUpper(prefix),
	}
}

func (l *envLoader) Load(_ context.Context) (merge.Fragment, error) {
	table := make(map[string]string)
	for _, kv := range os.Environ() {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		table[kv[:i]] = kv[i+1:]
	}

	return merge.Fragment{
		Source:   l.name,
		Priority: l.priority,
		LoadedAt: time.Now(),
		Data:     nestEnvTable(table, l.prefix),
	}, nil
}

// nestEnvTable 把扁平的 KEY_SUB_KEY=val 表展开为嵌套 Map。
//
// 键剥掉前缀后转小写，"_" 作为层级分隔符。
func nestEnvTable(table map[string]string, prefix string) value.Map {
	out := value.Map{}
	fullPrefix := prefix
	if fullPrefix != "" && !strings.HasSuffix(fullPrefix, "_") {
		fullPrefix += "_"
	}

	for key, val := range table {
		if fullPrefix != "" {
			if !strings.HasPrefix(key, fullPrefix) {
				continue
			}
			key = key[len(fullPrefix):]
		}
		if key == "" {
			continue
		}

		parts := strings.Split(strings.ToLower(key), "_")
		cur := out
		for i, part := range parts {
			if i == len(parts)-1 {
				// 已有嵌套 map 时保留它：更深的键胜出，与遍历顺序无关
				if _, isMap := cur[part].(value.Map); !isMap {
					cur[part] = value.String(val)
				}
				break
			}
			next, ok := cur[part].(value.Map)
			if !ok {
				// 与已有标量冲突时让更深的键胜出
				next = value.Map{}
				cur[part] = next
			}
			cur = next
		}
	}
	return out
}
