package channel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingType marks a message without a "type" field.
var ErrMissingType = errors.New("message has no type")

type envelope struct {
	Type string `json:"type"`
}

// encode writes msg's fields with a leading "type" member.
func encode(typ string, msg any) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", typ, err)
	}
	head, _ := json.Marshal(envelope{Type: typ})
	if bytes.Equal(body, []byte("{}")) {
		return head, nil
	}
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	return append(out, body[1:]...), nil
}

func peekType(data []byte) (string, error) {
	var env struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("decode message: %w", err)
	}
	if env.Type == nil || *env.Type == "" {
		return "", ErrMissingType
	}
	return *env.Type, nil
}

// EncodeHost serializes a page-to-surface message.
func EncodeHost(msg HostMessage) ([]byte, error) {
	return encode(msg.Type(), msg)
}

// EncodeSurface serializes a surface-to-page message.
func EncodeSurface(msg SurfaceMessage) ([]byte, error) {
	if u, ok := msg.(Unknown); ok {
		return u.Raw, nil
	}
	return encode(msg.Type(), msg)
}

// DecodeSurface parses a surface-to-page message. Unrecognized types
// decode to Unknown.
func DecodeSurface(data []byte) (SurfaceMessage, error) {
	typ, err := peekType(data)
	if err != nil {
		return nil, err
	}

	switch typ {
	case TypeSaveGuide:
		return decodeAs[SaveGuide](typ, data)
	case TypeSaveTagPage:
		return decodeAs[SaveTagPage](typ, data)
	case TypeSaveTagFeature:
		return decodeAs[SaveTagFeature](typ, data)
	case TypeHeatmapToggle:
		return decodeAs[HeatmapToggle](typ, data)
	case TypeActivateSelector:
		return ActivateSelector{}, nil
	case TypeClearSelection:
		return ClearSelection{}, nil
	case TypeCancel:
		return Cancel{}, nil
	case TypeSaved:
		return Saved{}, nil
	case TypeExitEditor:
		return ExitEditor{}, nil
	default:
		return Unknown{Kind: typ, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// DecodeHost parses a page-to-surface message.
func DecodeHost(data []byte) (HostMessage, error) {
	typ, err := peekType(data)
	if err != nil {
		return nil, err
	}

	switch typ {
	case TypeReady:
		return Ready{}, nil
	case TypeClearSelectionAck:
		return ClearSelectionAck{}, nil
	case TypeElementSelected:
		return decodeAs[ElementSelected](typ, data)
	case TypeHeatmapToggleAck:
		return decodeAs[HeatmapToggleAck](typ, data)
	case TypeSavedAck:
		return decodeAs[SavedAck](typ, data)
	default:
		return nil, fmt.Errorf("unknown host message type %q", typ)
	}
}

func decodeAs[T any](typ string, data []byte) (T, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode %s: %w", typ, err)
	}
	return m, nil
}
