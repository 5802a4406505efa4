package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "hello", Text("<b>hello</b>"))
	assert.Equal(t, "", Text("<script>alert(1)</script>"))
	assert.Equal(t, "Tom & Jerry", Text("  Tom & Jerry  "))
}

func TestHTML(t *testing.T) {
	out := HTML(`<p onclick="x()">Join <strong>us</strong></p><script>bad()</script>`)
	assert.Contains(t, out, "<strong>us</strong>")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "script")
}

func TestOptionalText(t *testing.T) {
	assert.Nil(t, OptionalText(nil))
	blank := "<i></i>"
	assert.Nil(t, OptionalText(&blank))
	v := "<b>General</b>"
	assert.Equal(t, "General", *OptionalText(&v))
}
