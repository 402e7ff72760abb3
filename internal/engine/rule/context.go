package rule

// FormContext maps field ids to the values entered so far in one form
// session. A missing key means the field has not been filled yet, which is
// different from an explicit null or empty value.
type FormContext map[string]Value

// Lookup returns the value for fieldID and whether it is present.
func (c FormContext) Lookup(fieldID string) (Value, bool) {
	if c == nil {
		return Value{}, false
	}
	v, ok := c[fieldID]
	if !ok || v.IsAbsent() {
		return Value{}, false
	}
	return v, true
}

// Has reports whether fieldID has a value in the context.
func (c FormContext) Has(fieldID string) bool {
	_, ok := c.Lookup(fieldID)
	return ok
}

// ContextFromMap builds a FormContext from decoded JSON data.
func ContextFromMap(data map[string]any) (FormContext, error) {
	ctx := make(FormContext, len(data))
	for k, raw := range data {
		v, err := FromInterface(raw)
		if err != nil {
			return nil, &ValueError{FieldID: k, Err: err}
		}
		ctx[k] = v
	}
	return ctx, nil
}

// ValueError reports a form context entry with an unsupported value kind.
type ValueError struct {
	FieldID string
	Err     error
}

func (e *ValueError) Error() string {
	return "field " + e.FieldID + ": " + e.Err.Error()
}

func (e *ValueError) Unwrap() error { return e.Err }
