package recorder

import (
	"encoding/base64"
	"strings"

	"github.com/replaykit/replaykit/pkg/types"
)

// maskedText replaces each word of redacted text so layout stays plausible
// without leaking content.
func maskedText(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.Repeat("x", len([]rune(w)))
	}
	return strings.Join(words, " ")
}

// NodeRecorder records one element kind. Recorders are consulted in registry
// order and the first match wins, so more specific recorders are registered
// before generic ones.
type NodeRecorder interface {
	// Matches reports whether this recorder handles the element.
	Matches(el *Element) bool

	// Record produces the redacted node for the element, children excluded.
	// A recorder may also emit a content-addressed resource extracted from
	// the element, or nil.
	Record(el *Element, privacy types.PrivacyLevel) (types.Node, *types.Resource)
}

// inputRecorder handles user-editable elements. Registered before the text
// recorder: input content is redacted at both mask and mask_user_input.
type inputRecorder struct{}

func (inputRecorder) Matches(el *Element) bool {
	return el.IsInput
}

func (inputRecorder) Record(el *Element, privacy types.PrivacyLevel) (types.Node, *types.Resource) {
	text := el.Text
	if privacy == types.PrivacyMask || privacy == types.PrivacyMaskUserInput {
		text = maskedText(text)
	}
	return types.Node{
		ID:    types.NodeID(el.ID),
		Kind:  types.NodeKindInput,
		Frame: el.Frame,
		Text:  text,
	}, nil
}

// webViewRecorder handles embedded web content. The page itself is never
// walked; the node records only that web content occupies the frame.
type webViewRecorder struct{}

func (webViewRecorder) Matches(el *Element) bool {
	return el.IsWebView
}

func (webViewRecorder) Record(el *Element, privacy types.PrivacyLevel) (types.Node, *types.Resource) {
	return types.Node{
		ID:    types.NodeID(el.ID),
		Kind:  types.NodeKindWebView,
		Frame: el.Frame,
	}, nil
}

// imageRecorder handles elements with bitmap content. Images above the inline
// threshold are extracted into deduplicated resources and referenced by
// content hash; small ones are inlined base64.
type imageRecorder struct {
	inlineThreshold int
}

func (imageRecorder) Matches(el *Element) bool {
	return len(el.Image) > 0
}

func (r imageRecorder) Record(el *Element, privacy types.PrivacyLevel) (types.Node, *types.Resource) {
	node := types.Node{
		ID:    types.NodeID(el.ID),
		Kind:  types.NodeKindImage,
		Frame: el.Frame,
	}
	if privacy == types.PrivacyMask {
		return node, nil
	}
	if len(el.Image) > r.inlineThreshold {
		res := NewResource(el.Image, el.ImageType)
		node.Resource = res.ID
		return node, &res
	}
	node.Image = base64.StdEncoding.EncodeToString(el.Image)
	return node, nil
}

// textRecorder handles elements with static text content.
type textRecorder struct{}

func (textRecorder) Matches(el *Element) bool {
	return el.Text != ""
}

func (textRecorder) Record(el *Element, privacy types.PrivacyLevel) (types.Node, *types.Resource) {
	text := el.Text
	if privacy == types.PrivacyMask {
		text = maskedText(text)
	}
	return types.Node{
		ID:    types.NodeID(el.ID),
		Kind:  types.NodeKindText,
		Frame: el.Frame,
		Text:  text,
	}, nil
}

// containerRecorder is the catch-all for plain layout elements. Always last
// in the registry.
type containerRecorder struct{}

func (containerRecorder) Matches(el *Element) bool {
	return true
}

func (containerRecorder) Record(el *Element, privacy types.PrivacyLevel) (types.Node, *types.Resource) {
	return types.Node{
		ID:    types.NodeID(el.ID),
		Kind:  types.NodeKindContainer,
		Frame: el.Frame,
	}, nil
}
