package convert

// OneOf restricts general to a fixed set of values. The allowed set is kept in
// serialized form: Parse checks the raw string against it, Serialize checks the
// output of general.
func OneOf[T any](general Converter[T], values ...T) Converter[T] {
	c := &oneOfConverter[T]{
		general:  general,
		allowed:  make([]any, len(values)),
		possible: make(map[string]struct{}, len(values)),
	}
	for i, v := range values {
		c.allowed[i] = v
		s, ok, err := general.Serialize(v)
		if err != nil {
			continue
		}
		if !ok {
			c.omitAllowed = true
			continue
		}
		c.possible[s] = struct{}{}
	}
	return c
}

type oneOfConverter[T any] struct {
	general     Converter[T]
	allowed     []any
	possible    map[string]struct{}
	omitAllowed bool
}

func (c *oneOfConverter[T]) Parse(raw string) (T, bool, error) {
	if _, ok := c.possible[raw]; ok {
		return c.general.Parse(raw)
	}
	var zero T
	if raw == "" && c.omitAllowed {
		return zero, false, nil
	}
	return zero, false, &MembershipError{Value: raw, Allowed: c.allowed}
}

func (c *oneOfConverter[T]) Serialize(value T) (string, bool, error) {
	s, ok, err := c.general.Serialize(value)
	if err != nil {
		return "", false, err
	}
	if !ok {
		if c.omitAllowed {
			return "", false, nil
		}
		return "", false, &MembershipError{Value: value, Allowed: c.allowed}
	}
	if _, found := c.possible[s]; found {
		return s, true, nil
	}
	return "", false, &MembershipError{Value: value, Allowed: c.allowed}
}
