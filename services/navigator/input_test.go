package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodec(t *testing.T) {
	inputs := []Input{
		Start{},
		Browse{},
		About{},
		Back{},
		DeepLink{DocumentID: 7},
		Select{Level: LevelInstructor, ID: 42},
		ToggleSubscription{CourseID: 12},
		Rate{DocumentID: 5, Value: 4},
	}
	for _, in := range inputs {
		data := Encode(in)
		assert.LessOrEqual(t, len(data), 64)
		assert.Equal(t, in, Decode(data), data)
	}

	assert.Equal(t, "sel:course:12", Encode(Select{Level: LevelCourse, ID: 12}))
	assert.Equal(t, "rate:5:4", Encode(Rate{DocumentID: 5, Value: 4}))

	t.Run("malformed", func(t *testing.T) {
		for _, data := range []string{"", "sel", "sel:planet:1", "sel:course:x", "sel:course:0", "sub:", "rate:1", "back:1", "major_3"} {
			assert.Equal(t, Unknown{Raw: data}, Decode(data), data)
		}
	})
}

func TestParseStartPayload(t *testing.T) {
	cases := map[string]Input{
		"":             Start{},
		"hello":        Start{},
		"document_12":  DeepLink{DocumentID: 12},
		"document:12":  DeepLink{DocumentID: 12},
		"note_3":       DeepLink{DocumentID: 3},
		"document_abc": DeepLink{DocumentID: 0},
	}
	for payload, want := range cases {
		assert.Equal(t, want, ParseStartPayload(payload), payload)
	}
}
