package pb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/frobware/go-pfq/manager"
	"github.com/frobware/go-pfq/skbuff"
	"github.com/frobware/go-pfq/store"
	"github.com/frobware/go-pfq/transport"
)

// FieldError reports a missing or malformed message field.
type FieldError struct {
	Field string
	Msg   string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Msg)
}

// CompileRequest asks the server to store a node under a name.
type CompileRequest struct {
	Name   string
	Node   *structpb.Struct
	Labels map[string]string
}

// NameRequest identifies one stored composition.
type NameRequest struct {
	Name string
}

// ListRequest filters List by label.
type ListRequest struct {
	LabelKey   string
	LabelValue string
}

// EvaluateRequest runs either stored compositions, as a chain, or an
// unsaved node. Exactly one of Names and Node is set.
type EvaluateRequest struct {
	Names     []string
	Node      *structpb.Struct
	ProceedOn uint32
	State     skbuff.State
}

// Struct encodes r.
func (r CompileRequest) Struct() *structpb.Struct {
	m := map[string]*structpb.Value{
		"name":   structpb.NewStringValue(r.Name),
		"labels": labelsValue(r.Labels),
	}
	if r.Node != nil {
		m["node"] = structpb.NewStructValue(r.Node)
	}
	return fields(m)
}

// ParseCompileRequest decodes a CompileRequest.
func ParseCompileRequest(s *structpb.Struct) (CompileRequest, error) {
	name, err := requiredString(s, "name")
	if err != nil {
		return CompileRequest{}, err
	}
	node := s.GetFields()["node"].GetStructValue()
	if node == nil {
		return CompileRequest{}, FieldError{Field: "node", Msg: "missing"}
	}
	labels, err := parseLabels(s.GetFields()["labels"])
	if err != nil {
		return CompileRequest{}, err
	}
	return CompileRequest{Name: name, Node: node, Labels: labels}, nil
}

// Struct encodes r.
func (r NameRequest) Struct() *structpb.Struct {
	return fields(map[string]*structpb.Value{"name": structpb.NewStringValue(r.Name)})
}

// ParseNameRequest decodes a NameRequest.
func ParseNameRequest(s *structpb.Struct) (NameRequest, error) {
	name, err := requiredString(s, "name")
	return NameRequest{Name: name}, err
}

// Struct encodes r.
func (r ListRequest) Struct() *structpb.Struct {
	return fields(map[string]*structpb.Value{
		"label_key":   structpb.NewStringValue(r.LabelKey),
		"label_value": structpb.NewStringValue(r.LabelValue),
	})
}

// ParseListRequest decodes a ListRequest. Both fields are optional.
func ParseListRequest(s *structpb.Struct) (ListRequest, error) {
	return ListRequest{
		LabelKey:   s.GetFields()["label_key"].GetStringValue(),
		LabelValue: s.GetFields()["label_value"].GetStringValue(),
	}, nil
}

// Struct encodes r.
func (r EvaluateRequest) Struct() *structpb.Struct {
	m := map[string]*structpb.Value{
		"proceed_on": structpb.NewStringValue(strconv.FormatUint(uint64(r.ProceedOn), 10)),
		"state":      structpb.NewStructValue(StateStruct(r.State)),
	}
	if r.Node != nil {
		m["node"] = structpb.NewStructValue(r.Node)
	}
	if len(r.Names) > 0 {
		names := make([]*structpb.Value, 0, len(r.Names))
		for _, n := range r.Names {
			names = append(names, structpb.NewStringValue(n))
		}
		m["names"] = structpb.NewListValue(&structpb.ListValue{Values: names})
	}
	return fields(m)
}

// ParseEvaluateRequest decodes an EvaluateRequest.
func ParseEvaluateRequest(s *structpb.Struct) (EvaluateRequest, error) {
	var r EvaluateRequest

	for i, v := range s.GetFields()["names"].GetListValue().GetValues() {
		name, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok || name.StringValue == "" {
			return EvaluateRequest{}, FieldError{Field: fmt.Sprintf("names[%d]", i), Msg: "not a non-empty string"}
		}
		r.Names = append(r.Names, name.StringValue)
	}
	r.Node = s.GetFields()["node"].GetStructValue()
	if (r.Node == nil) == (len(r.Names) == 0) {
		return EvaluateRequest{}, FieldError{Field: "names", Msg: "exactly one of names and node must be set"}
	}

	proceedOn, err := optionalUint(s, "proceed_on", 32)
	if err != nil {
		return EvaluateRequest{}, err
	}
	r.ProceedOn = uint32(proceedOn)

	if r.State, err = ParseState(s.GetFields()["state"].GetStructValue()); err != nil {
		return EvaluateRequest{}, err
	}
	return r, nil
}

// StateStruct encodes packet metadata. Masks travel as decimal strings.
func StateStruct(st skbuff.State) *structpb.Struct {
	return fields(map[string]*structpb.Value{
		"class":     structpb.NewStringValue(strconv.FormatUint(st.Class, 10)),
		"groups":    structpb.NewStringValue(strconv.FormatUint(st.Groups, 10)),
		"to_kernel": structpb.NewBoolValue(st.ToKernel),
	})
}

// ParseState decodes packet metadata. A nil struct is the zero state.
func ParseState(s *structpb.Struct) (skbuff.State, error) {
	var st skbuff.State
	var err error
	if st.Class, err = optionalUint(s, "class", 64); err != nil {
		return st, err
	}
	if st.Groups, err = optionalUint(s, "groups", 64); err != nil {
		return st, err
	}
	st.ToKernel = s.GetFields()["to_kernel"].GetBoolValue()
	return st, nil
}

// ResultStruct encodes an evaluation result.
func ResultStruct(r manager.Result) *structpb.Struct {
	return fields(map[string]*structpb.Value{
		"verdict": structpb.NewStringValue(r.Verdict),
		"mask":    structpb.NewStringValue(strconv.FormatUint(r.Mask, 10)),
		"state":   structpb.NewStructValue(StateStruct(r.State)),
	})
}

// ParseResult decodes an evaluation result.
func ParseResult(s *structpb.Struct) (manager.Result, error) {
	verdict, err := requiredString(s, "verdict")
	if err != nil {
		return manager.Result{}, err
	}
	mask, err := optionalUint(s, "mask", 64)
	if err != nil {
		return manager.Result{}, err
	}
	st, err := ParseState(s.GetFields()["state"].GetStructValue())
	if err != nil {
		return manager.Result{}, err
	}
	return manager.Result{Verdict: verdict, Mask: mask, State: st}, nil
}

// RecordStruct encodes a stored composition. The wire bytes are
// expanded into a "node" struct.
func RecordStruct(rec store.Record) (*structpb.Struct, error) {
	node, err := transport.UnmarshalStruct(rec.Wire)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.Name, err)
	}
	return fields(map[string]*structpb.Value{
		"id":         structpb.NewStringValue(rec.ID.String()),
		"name":       structpb.NewStringValue(rec.Name),
		"symbol":     structpb.NewStringValue(rec.Symbol),
		"kind":       structpb.NewStringValue(rec.Kind),
		"text":       structpb.NewStringValue(rec.Text),
		"labels":     labelsValue(rec.Labels),
		"created_at": structpb.NewStringValue(rec.CreatedAt.UTC().Format(time.RFC3339Nano)),
		"node":       structpb.NewStructValue(node),
	}), nil
}

// ParseRecord decodes a stored composition.
func ParseRecord(s *structpb.Struct) (store.Record, error) {
	var rec store.Record

	id, err := requiredString(s, "id")
	if err != nil {
		return rec, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return rec, FieldError{Field: "id", Msg: err.Error()}
	}
	if rec.Name, err = requiredString(s, "name"); err != nil {
		return rec, err
	}
	rec.Symbol = s.GetFields()["symbol"].GetStringValue()
	rec.Kind = s.GetFields()["kind"].GetStringValue()
	rec.Text = s.GetFields()["text"].GetStringValue()
	if rec.Labels, err = parseLabels(s.GetFields()["labels"]); err != nil {
		return rec, err
	}
	if ts := s.GetFields()["created_at"].GetStringValue(); ts != "" {
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return rec, FieldError{Field: "created_at", Msg: err.Error()}
		}
	}
	if node := s.GetFields()["node"].GetStructValue(); node != nil {
		if rec.Wire, err = transport.MarshalStruct(node); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// RecordsStruct encodes a List response.
func RecordsStruct(recs []store.Record) (*structpb.Struct, error) {
	values := make([]*structpb.Value, 0, len(recs))
	for _, rec := range recs {
		s, err := RecordStruct(rec)
		if err != nil {
			return nil, err
		}
		values = append(values, structpb.NewStructValue(s))
	}
	return fields(map[string]*structpb.Value{
		"records": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}), nil
}

// ParseRecords decodes a List response.
func ParseRecords(s *structpb.Struct) ([]store.Record, error) {
	var out []store.Record
	for i, v := range s.GetFields()["records"].GetListValue().GetValues() {
		rec, err := ParseRecord(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Empty returns an empty message.
func Empty() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}
}

func fields(m map[string]*structpb.Value) *structpb.Struct {
	return &structpb.Struct{Fields: m}
}

func labelsValue(labels map[string]string) *structpb.Value {
	m := make(map[string]*structpb.Value, len(labels))
	for k, v := range labels {
		m[k] = structpb.NewStringValue(v)
	}
	return structpb.NewStructValue(fields(m))
}

func parseLabels(v *structpb.Value) (map[string]string, error) {
	s := v.GetStructValue()
	if len(s.GetFields()) == 0 {
		return nil, nil
	}
	labels := make(map[string]string, len(s.GetFields()))
	for k, lv := range s.GetFields() {
		str, ok := lv.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, FieldError{Field: "labels." + k, Msg: "not a string"}
		}
		labels[k] = str.StringValue
	}
	return labels, nil
}

func requiredString(s *structpb.Struct, field string) (string, error) {
	v, ok := s.GetFields()[field].GetKind().(*structpb.Value_StringValue)
	if !ok || v.StringValue == "" {
		return "", FieldError{Field: field, Msg: "missing or not a non-empty string"}
	}
	return v.StringValue, nil
}

func optionalUint(s *structpb.Struct, field string, bits int) (uint64, error) {
	v := s.GetFields()[field]
	if v == nil {
		return 0, nil
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return 0, FieldError{Field: field, Msg: "not a decimal string"}
	}
	if str.StringValue == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(str.StringValue, 10, bits)
	if err != nil {
		return 0, FieldError{Field: field, Msg: err.Error()}
	}
	return n, nil
}
