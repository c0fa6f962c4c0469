package stdlib

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Captainexpo-1/PitLang/value"
)

func testIO(stdin string) (*IO, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &IO{Out: &out, In: bufio.NewReader(strings.NewReader(stdin)), Err: &errOut}, &out, &errOut
}

func call(t *testing.T, std *value.Object, name string, args ...value.Value) value.Value {
	t.Helper()
	fn, ok := std.Get(name)
	require.True(t, ok, "std.%s not bound", name)
	hf := fn.(*value.HostFunction)
	v, err := hf.Fn(value.NullValue, args)
	require.NoError(t, err)
	return v
}

func TestStd_PrintlnWritesToIO(t *testing.T) {
	io_, out, _ := testIO("")
	std := New(io_, nil)
	call(t, std, "println", value.String{Value: "hi"})
	require.Equal(t, "hi\n", out.String())
}

func TestStd_Argv(t *testing.T) {
	io_, _, _ := testIO("")
	std := New(io_, []string{"a", "b"})
	v := call(t, std, "argv")
	arr := v.(*value.Array)
	require.Len(t, arr.Elements, 2)
	require.Equal(t, value.String{Value: "a"}, arr.Elements[0])
}

func TestStd_GetLine(t *testing.T) {
	io_, _, _ := testIO("hello\n")
	std := New(io_, nil)
	v := call(t, std, "get_line")
	require.Equal(t, value.String{Value: "hello\n"}, v)
}

func TestStd_ReadFileMissingReturnsNull(t *testing.T) {
	io_, _, _ := testIO("")
	std := New(io_, nil)
	v := call(t, std, "read_file", value.String{Value: "/does/not/exist"})
	require.Equal(t, value.NullValue, v)
}

func TestStringMethods_LengthAndGet(t *testing.T) {
	fn, ok := Method(value.StringKind, "length")
	require.True(t, ok)
	v, err := fn(value.String{Value: "hello"}, nil)
	require.NoError(t, err)
	require.Equal(t, value.Number{Value: 5}, v)

	getFn, _ := Method(value.StringKind, "get")
	v, err = getFn(value.String{Value: "hello"}, []value.Value{value.Number{Value: -1}})
	require.NoError(t, err)
	require.Equal(t, value.String{Value: "o"}, v)
}

func TestStringMethods_OrdRequiresSingleChar(t *testing.T) {
	fn, _ := Method(value.StringKind, "ord")
	_, err := fn(value.String{Value: "ab"}, nil)
	require.Error(t, err)
}

func TestStringMethods_Find(t *testing.T) {
	fn, _ := Method(value.StringKind, "find")
	v, err := fn(value.String{Value: "hello world"}, []value.Value{value.String{Value: "world"}})
	require.NoError(t, err)
	require.Equal(t, value.Number{Value: 6}, v)

	v, err = fn(value.String{Value: "hello"}, []value.Value{value.String{Value: "zzz"}})
	require.NoError(t, err)
	require.Equal(t, value.Number{Value: -1}, v)
}

func TestNumberMethods(t *testing.T) {
	roundFn, _ := Method(value.NumberKind, "round")
	v, err := roundFn(value.Number{Value: 1.6}, nil)
	require.NoError(t, err)
	require.Equal(t, value.Number{Value: 2}, v)

	floorFn, _ := Method(value.NumberKind, "floor")
	v, _ = floorFn(value.Number{Value: 1.9}, nil)
	require.Equal(t, value.Number{Value: 1}, v)

	ceilFn, _ := Method(value.NumberKind, "ceil")
	v, _ = ceilFn(value.Number{Value: 1.1}, nil)
	require.Equal(t, value.Number{Value: 2}, v)
}

func TestArrayMethods_PushPopGetSetRemoveFind(t *testing.T) {
	arr := value.NewArray([]value.Value{value.Number{Value: 1}, value.Number{Value: 2}})

	pushFn, _ := Method(value.ArrayKind, "push")
	_, err := pushFn(arr, []value.Value{value.Number{Value: 3}})
	require.NoError(t, err)
	require.Len(t, arr.Elements, 3)

	getFn, _ := Method(value.ArrayKind, "get")
	v, err := getFn(arr, []value.Value{value.Number{Value: -1}})
	require.NoError(t, err)
	require.Equal(t, value.Number{Value: 3}, v)

	setFn, _ := Method(value.ArrayKind, "set")
	_, err = setFn(arr, []value.Value{value.Number{Value: 0}, value.Number{Value: 99}})
	require.NoError(t, err)
	require.Equal(t, value.Number{Value: 99}, arr.Elements[0])

	findFn, _ := Method(value.ArrayKind, "find")
	v, err = findFn(arr, []value.Value{value.Number{Value: 2}})
	require.NoError(t, err)
	require.Equal(t, value.Number{Value: 1}, v)

	removeFn, _ := Method(value.ArrayKind, "remove")
	v, err = removeFn(arr, []value.Value{value.Number{Value: 0}})
	require.NoError(t, err)
	require.Equal(t, value.Number{Value: 99}, v)
	require.Len(t, arr.Elements, 2)

	popFn, _ := Method(value.ArrayKind, "pop")
	v, err = popFn(arr, nil)
	require.NoError(t, err)
	require.Equal(t, value.Number{Value: 3}, v)
}

func TestArrayMethods_OutOfBoundsIsValueError(t *testing.T) {
	arr := value.NewArray([]value.Value{value.Number{Value: 1}})
	getFn, _ := Method(value.ArrayKind, "get")
	_, err := getFn(arr, []value.Value{value.Number{Value: 5}})
	require.Error(t, err)
}

func TestMethod_UnknownReceiverKind(t *testing.T) {
	_, ok := Method(value.ObjectKind, "length")
	require.False(t, ok)
}
