package errors

// Kind identifies a category of failure. Kinds are compared by identity, so
// two kinds with the same name are still distinct dispatch keys.
type Kind struct {
	name   string
	parent *Kind
}

// Built-in kinds
var (
	// KindUnknown is the root of every kind and the universal catch-all.
	KindUnknown = &Kind{name: "UnknownFailure"}

	KindValidation         = NewKind("ValidationFailure", KindUnknown)
	KindBadRequestHeader   = NewKind("BadRequestHeaderError", KindUnknown)
	KindTimeout            = NewKind("TimeoutFailure", KindUnknown)
	KindRuntime            = NewKind("RuntimeFailure", KindUnknown)
	KindInvalidAccessToken = NewKind("InvalidAccessTokenError", KindUnknown)
	KindProtocol           = NewKind("ProtocolException", KindUnknown)
)

// NewKind declares a kind whose broader category is parent.
// A nil parent places the kind directly under KindUnknown.
func NewKind(name string, parent *Kind) *Kind {
	if parent == nil {
		parent = KindUnknown
	}
	return &Kind{name: name, parent: parent}
}

// Name returns the kind name used in diagnostic text
func (k *Kind) Name() string {
	if k == nil {
		return KindUnknown.name
	}
	return k.name
}

// String implements fmt.Stringer
func (k *Kind) String() string {
	return k.Name()
}

// Parent returns the broader category, or nil for the root
func (k *Kind) Parent() *Kind {
	if k == nil {
		return nil
	}
	return k.parent
}

// Is reports whether k equals ancestor or descends from it
func (k *Kind) Is(ancestor *Kind) bool {
	for cur := k; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}
