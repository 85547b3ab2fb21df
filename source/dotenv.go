package source

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"github.com/ceyewan/cascade/merge"
	"github.com/ceyewan/cascade/xerrors"
)

// dotenvLoader .env 文件加载器
type dotenvLoader struct {
	loaderBase
	path   string
	prefix string
}

// DotEnv 创建 .env 文件加载器。
//
// 文件内容经 godotenv 解析后与环境变量加载器走同一套
// 键展开规则（"_" 分层、转小写）。
func DotEnv(path string, priority int, opts ...Option) Loader {
	return &dotenvLoader{
		loaderBase: newBase("dotenv", priority, opts...),
		path:       path,
	}
}

func (l *dotenvLoader) Load(_ context.Context) (merge.Fragment, error) {
	table, err := godotenv.Read(l.path)
	if err != nil {
		return merge.Fragment{}, xerrors.Wrapf(err, "read dotenv file %s", l.path)
	}

	return merge.Fragment{
		Source:   l.name,
		Priority: l.priority,
		LoadedAt: time.Now(),
		Data:     nestEnvTable(table, l.prefix),
	}, nil
}
