package stated

import "fmt"

// Canonical method names the capability helpers dispatch to. States expose
// these names to give a proxy property, index, iteration or serialization
// behavior.
const (
	MethodGet          = "__get"
	MethodSet          = "__set"
	MethodIsset        = "__isset"
	MethodUnset        = "__unset"
	MethodToString     = "__toString"
	MethodInvoke       = "__invoke"
	MethodCount        = "count"
	MethodOffsetGet    = "offsetGet"
	MethodOffsetSet    = "offsetSet"
	MethodOffsetExists = "offsetExists"
	MethodOffsetUnset  = "offsetUnset"
	MethodCurrent      = "current"
	MethodKey          = "key"
	MethodNext         = "next"
	MethodRewind       = "rewind"
	MethodSeek         = "seek"
	MethodValid        = "valid"
	MethodGetIterator  = "getIterator"
	MethodSerialize    = "serialize"
	MethodUnserialize  = "unserialize"
)

// PropertyAccess is property-style access funneled through dispatch.
type PropertyAccess interface {
	Get(name string) (any, error)
	Set(name string, value any) error
	Isset(name string) (bool, error)
	Unset(name string) error
}

// Indexable is array-style access funneled through dispatch.
type Indexable interface {
	Count() (int, error)
	OffsetGet(offset any) (any, error)
	OffsetSet(offset, value any) error
	OffsetExists(offset any) (bool, error)
	OffsetUnset(offset any) error
}

// Iterable is cursor iteration funneled through dispatch.
type Iterable interface {
	Current() (any, error)
	Key() (any, error)
	Next() error
	Rewind() error
	Seek(position int) error
	Valid() (bool, error)
	Iterator() (any, error)
}

// Serializable is string serialization funneled through dispatch.
type Serializable interface {
	Serialize() (string, error)
	Unserialize(data string) error
}

// Invokable lets a proxy be called as a function.
type Invokable interface {
	Invoke(args ...any) (any, error)
}

var (
	_ PropertyAccess = (*Proxy)(nil)
	_ Indexable      = (*Proxy)(nil)
	_ Iterable       = (*Proxy)(nil)
	_ Serializable   = (*Proxy)(nil)
	_ Invokable      = (*Proxy)(nil)
	_ fmt.Stringer   = (*Proxy)(nil)
)

func (p *Proxy) Get(name string) (any, error) {
	return p.Call(MethodGet, name)
}

func (p *Proxy) Set(name string, value any) error {
	_, err := p.Call(MethodSet, name, value)
	return err
}

func (p *Proxy) Isset(name string) (bool, error) {
	return p.callBool(MethodIsset, name)
}

func (p *Proxy) Unset(name string) error {
	_, err := p.Call(MethodUnset, name)
	return err
}

// ToString dispatches __toString.
func (p *Proxy) ToString() (string, error) {
	value, err := p.Call(MethodToString)
	if err != nil {
		return "", err
	}
	text, ok := value.(string)
	if !ok {
		return "", p.resultError(MethodToString, "string", value)
	}
	return text, nil
}

// String implements fmt.Stringer. Without a usable __toString it falls back
// to the class name and identity token.
func (p *Proxy) String() string {
	if text, err := p.ToString(); err == nil {
		return text
	}
	return p.class + "#" + p.ID()
}

func (p *Proxy) Invoke(args ...any) (any, error) {
	return p.Call(MethodInvoke, args...)
}

func (p *Proxy) Count() (int, error) {
	value, err := p.Call(MethodCount)
	if err != nil {
		return 0, err
	}
	count, ok := value.(int)
	if !ok {
		return 0, p.resultError(MethodCount, "int", value)
	}
	return count, nil
}

func (p *Proxy) OffsetGet(offset any) (any, error) {
	return p.Call(MethodOffsetGet, offset)
}

func (p *Proxy) OffsetSet(offset, value any) error {
	_, err := p.Call(MethodOffsetSet, offset, value)
	return err
}

func (p *Proxy) OffsetExists(offset any) (bool, error) {
	return p.callBool(MethodOffsetExists, offset)
}

func (p *Proxy) OffsetUnset(offset any) error {
	_, err := p.Call(MethodOffsetUnset, offset)
	return err
}

func (p *Proxy) Current() (any, error) {
	return p.Call(MethodCurrent)
}

func (p *Proxy) Key() (any, error) {
	return p.Call(MethodKey)
}

func (p *Proxy) Next() error {
	_, err := p.Call(MethodNext)
	return err
}

func (p *Proxy) Rewind() error {
	_, err := p.Call(MethodRewind)
	return err
}

func (p *Proxy) Seek(position int) error {
	_, err := p.Call(MethodSeek, position)
	return err
}

func (p *Proxy) Valid() (bool, error) {
	return p.callBool(MethodValid)
}

// Iterator dispatches getIterator.
func (p *Proxy) Iterator() (any, error) {
	return p.Call(MethodGetIterator)
}

func (p *Proxy) Serialize() (string, error) {
	value, err := p.Call(MethodSerialize)
	if err != nil {
		return "", err
	}
	data, ok := value.(string)
	if !ok {
		return "", p.resultError(MethodSerialize, "string", value)
	}
	return data, nil
}

func (p *Proxy) Unserialize(data string) error {
	_, err := p.Call(MethodUnserialize, data)
	return err
}

func (p *Proxy) callBool(method string, args ...any) (bool, error) {
	value, err := p.Call(method, args...)
	if err != nil {
		return false, err
	}
	flag, ok := value.(bool)
	if !ok {
		return false, p.resultError(method, "bool", value)
	}
	return flag, nil
}

func (p *Proxy) resultError(method, want string, got any) error {
	return newError(ErrInvalidArgument, withClass(p.class), withMethod(method),
		withDetail(fmt.Sprintf("expected %s result, got %T", want, got)))
}
