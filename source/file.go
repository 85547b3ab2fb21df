package source

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/ceyewan/cascade/merge"
	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// fileLoader 配置文件加载器，格式解析交给 viper
type fileLoader struct {
	loaderBase
	path string
}

// File 创建配置文件加载器。
//
// 支持 viper 能识别的全部格式（yaml/json/toml 等），
// 按文件扩展名自动选择解析器。
func File(path string, priority int, opts ...Option) Loader {
	return &fileLoader{
		loaderBase: newBase("file:"+path, priority, opts...),
		path:       path,
	}
}

func (l *fileLoader) Load(_ context.Context) (merge.Fragment, error) {
	v := viper.New()
	v.SetConfigFile(l.path)
	if err := v.ReadInConfig(); err != nil {
		return merge.Fragment{}, xerrors.Wrapf(err, "read config file %s", l.path)
	}

	return merge.Fragment{
		Source:   l.name,
		Priority: l.priority,
		LoadedAt: time.Now(),
		Data:     value.FromAny(v.AllSettings()),
	}, nil
}
