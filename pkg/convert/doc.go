// Package convert provides the bidirectional codecs between typed values and
// their query-string form.
//
// A Converter never writes to the query string directly. Serialize reports
// ok == false when the value should be omitted (empty strings, empty slices),
// and Parse reports ok == false when the raw string carries no value. Invalid
// input is reported through the error return, as a *ParseError or a
// *MembershipError.
//
//	page := convert.Number
//	tags := convert.Array(convert.String)
//	sort := convert.OneOf(convert.String, "asc", "desc")
//
//	v, ok, err := tags.Parse("go,web")   // []string{"go", "web"}, true, nil
//	s, ok, err := sort.Serialize("up")   // "", false, *MembershipError
package convert
