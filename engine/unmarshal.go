package engine

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// Unmarshal 把解析后的文档反序列化到结构体。
//
// 字段按 mapstructure 标签匹配，未打标签时按字段名
// 不区分大小写匹配。字符串形式的时长（如 "30s"）
// 可直接落到 time.Duration 字段上。
func Unmarshal(doc value.Value, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return xerrors.Wrap(err, "build decoder")
	}
	if err := dec.Decode(value.ToAny(doc)); err != nil {
		return xerrors.Wrap(err, "unmarshal document")
	}
	return nil
}

// UnmarshalKey 把指定路径的子树反序列化到结构体
func UnmarshalKey(doc value.Value, path string, out any) error {
	sub, err := value.Get(doc, path)
	if err != nil {
		return err
	}
	return Unmarshal(sub, out)
}
