// Package value 定义配置文档的封闭值模型。
//
// 配置树由六种变体组成：Null、Bool、Number、String、List、Map。
// merge/interp/validate 在遍历时对 Value 做穷尽的类型开关，
// 不需要任何 reflect 或运行时类型猜测。
//
// 基本使用：
//
//	doc := value.Map{
//	    "app": value.Map{
//	        "name": value.String("demo"),
//	        "port": value.Number(8080),
//	    },
//	}
//
//	v, _ := value.Get(doc, "app.port")
//	port := v.(value.Number) // 8080
package value

import (
	"reflect"

	"github.com/spf13/cast"
)

// Kind 标识 Value 的具体变体
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// String 返回 Kind 的可读名称
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value 是配置树节点的封闭接口，只有本包的六种变体实现它。
type Value interface {
	Kind() Kind
	isValue()
}

// Null 空值
type Null struct{}

// Bool 布尔值
type Bool bool

// Number 数值，统一用 float64 表示（与 JSON/YAML 解析结果一致）
type Number float64

// String 字符串值，插值引擎只处理这种叶子
type String string

// List 有序列表
type List []Value

// Map 键值映射
type Map map[string]Value

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (List) Kind() Kind   { return KindList }
func (Map) Kind() Kind    { return KindMap }

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Number) isValue() {}
func (String) isValue() {}
func (List) isValue()   {}
func (Map) isValue()    {}

// Clone 返回 Value 的深拷贝。
//
// 标量变体是值类型，直接返回；List/Map 递归复制底层存储，
// 保证输出与输入不共享任何可变结构。
func Clone(v Value) Value {
	switch v := v.(type) {
	case nil:
		return Null{}
	case List:
		out := make(List, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	case Map:
		out := make(Map, len(v))
		for k, item := range v {
			out[k] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Equal 判断两个 Value 是否结构相等
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Number:
		return av == b.(Number)
	case String:
		return av == b.(String)
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv := b.(Map)
		if len(av) != len(bv) {
			return false
		}
		for k, item := range av {
			other, ok := bv[k]
			if !ok || !Equal(item, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FromAny 将加载器产出的原始数据（map[string]any 等）转换为 Value 树。
//
// 显式分支之外的容器类型（[]int、map[string]string 等）通过反射
// 逐元素递归转换；无法识别的标量尽力转换：先按数值、再按字符串，
// 最后退化为 Null。
func FromAny(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Null{}
	case Value:
		return Clone(v)
	case bool:
		return Bool(v)
	case string:
		return String(v)
	case int:
		return Number(v)
	case int8:
		return Number(v)
	case int16:
		return Number(v)
	case int32:
		return Number(v)
	case int64:
		return Number(v)
	case uint:
		return Number(v)
	case uint8:
		return Number(v)
	case uint16:
		return Number(v)
	case uint32:
		return Number(v)
	case uint64:
		return Number(v)
	case float32:
		return Number(v)
	case float64:
		return Number(v)
	case []any:
		out := make(List, len(v))
		for i, item := range v {
			out[i] = FromAny(item)
		}
		return out
	case []string:
		out := make(List, len(v))
		for i, item := range v {
			out[i] = String(item)
		}
		return out
	case map[string]any:
		out := make(Map, len(v))
		for k, item := range v {
			out[k] = FromAny(item)
		}
		return out
	case map[any]any:
		// 某些 YAML 解析器产出 map[any]any
		out := make(Map, len(v))
		for k, item := range v {
			out[cast.ToString(k)] = FromAny(item)
		}
		return out
	case []byte:
		return String(v)
	default:
		return fromReflect(raw)
	}
}

// fromReflect 兜底转换：泛化的 slice/map/指针按反射递归，标量走 cast
func fromReflect(raw any) Value {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make(List, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = FromAny(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[cast.ToString(iter.Key().Interface())] = FromAny(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}
		}
		return FromAny(rv.Elem().Interface())
	}

	if n, err := cast.ToFloat64E(raw); err == nil {
		return Number(n)
	}
	if s, err := cast.ToStringE(raw); err == nil {
		return String(s)
	}
	return Null{}
}

// ToAny 将 Value 树转换回普通的 map/slice/标量结构，
// 供 mapstructure 反序列化或编码器输出使用。
func ToAny(v Value) any {
	switch v := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(v)
	case Number:
		// 整数值还原为 int64，避免 8080 输出成 8080.0
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case String:
		return string(v)
	case List:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = ToAny(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}
