package graph

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"

	"github.com/flowbotio/flowbot/pkg/models"
)

var validate = validator.New()

// document mirrors the builder's flow document envelope. Per-node config is
// a kind-specific bag decoded in a second pass.
type document struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Nodes       []documentNode       `json:"nodes"`
	Connections []*models.Connection `json:"connections"`
}

type documentNode struct {
	ID       string          `json:"id"`
	Kind     models.NodeKind `json:"kind"`
	Position models.Position `json:"position"`
	Config   map[string]any  `json:"config"`
}

// Load parses a flow document and validates it. The returned graph is usable
// only when the findings contain no fatal errors; warnings are informational.
// Load never panics on malformed input.
func Load(doc []byte) (*models.Graph, []ValidationError) {
	if errs := checkSchema(doc); len(errs) > 0 {
		return nil, errs
	}

	var envelope document
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, []ValidationError{{
			Kind:    ErrInvalidDocument,
			Message: fmt.Sprintf("failed to decode document: %v", err),
		}}
	}

	graph := &models.Graph{
		ID:          envelope.ID,
		Name:        envelope.Name,
		Connections: envelope.Connections,
		Nodes:       make([]*models.Node, 0, len(envelope.Nodes)),
	}

	var errs []ValidationError

	for _, raw := range envelope.Nodes {
		node, nodeErrs := decodeNode(raw)
		errs = append(errs, nodeErrs...)

		if node != nil {
			graph.Nodes = append(graph.Nodes, node)
		}
	}

	if err := validate.Struct(graph); err != nil {
		errs = append(errs, structErrors(err)...)
	}

	graph.Index()

	errs = append(errs, Validate(graph)...)

	return graph, errs
}

func checkSchema(doc []byte) []ValidationError {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return []ValidationError{{
			Kind:    ErrInvalidDocument,
			Message: fmt.Sprintf("document is not valid JSON: %v", err),
		}}
	}

	if result.Valid() {
		return nil
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Kind:    ErrInvalidDocument,
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}

	return errs
}

// decodeNode turns a raw document node into a typed node, decoding the config
// bag into the variant matching the node kind.
func decodeNode(raw documentNode) (*models.Node, []ValidationError) {
	node := &models.Node{
		ID:       raw.ID,
		Kind:     raw.Kind,
		Position: raw.Position,
	}

	if !raw.Kind.IsValid() {
		return nil, []ValidationError{{
			Kind:    ErrInvalidDocument,
			NodeID:  raw.ID,
			Field:   "kind",
			Message: fmt.Sprintf("unknown node kind %q", raw.Kind),
		}}
	}

	var errs []ValidationError

	// Every kind may carry display text and a keyboard; media and location
	// kinds additionally carry their own payload variant.
	msg := &models.MessageConfig{}
	if err := decodeBag(raw.Config, msg); err != nil {
		errs = append(errs, bagError(raw.ID, err))
	}

	node.Message = msg

	if raw.Kind.IsMedia() {
		media := &models.MediaConfig{}
		if err := decodeBag(raw.Config, media); err != nil {
			errs = append(errs, bagError(raw.ID, err))
		}

		node.Media = media
	}

	if raw.Kind == models.NodeKindLocation {
		loc := &models.LocationConfig{}
		if err := decodeBag(raw.Config, loc); err != nil {
			errs = append(errs, bagError(raw.ID, err))
		}

		node.Location = loc
	}

	if input, ok := raw.Config["input"].(map[string]any); ok {
		spec := &models.InputSpec{}
		if err := decodeBag(input, spec); err != nil {
			errs = append(errs, bagError(raw.ID, err))
		}

		node.Input = spec
	}

	return node, errs
}

// decodeBag decodes a config bag into a typed config struct. Weak typing
// tolerates builder documents that serialize numbers and booleans as strings.
func decodeBag(bag map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(bag)
}

func bagError(nodeID string, err error) ValidationError {
	return ValidationError{
		Kind:    ErrInvalidDocument,
		NodeID:  nodeID,
		Field:   "config",
		Message: fmt.Sprintf("failed to decode node config: %v", err),
	}
}

func structErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Kind: ErrInvalidDocument, Message: err.Error()}}
	}

	errs := make([]ValidationError, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		errs = append(errs, ValidationError{
			Kind:    ErrInvalidDocument,
			Field:   fieldErr.Namespace(),
			Message: fmt.Sprintf("failed %q validation", fieldErr.Tag()),
		})
	}

	return errs
}
