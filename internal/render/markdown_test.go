package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akulov/elib/internal/config"
)

func newTestRenderer(hardWraps bool) *Renderer {
	return NewRenderer(config.Render{
		HardWraps:   hardWraps,
		AllowedTags: config.DefaultAllowedTags,
	})
}

func TestMarkdownRendersBasicFormatting(t *testing.T) {
	renderer := newTestRenderer(false)

	out := string(renderer.Markdown("A **great** book about *libraries*."))
	assert.Contains(t, out, "<strong>great</strong>")
	assert.Contains(t, out, "<em>libraries</em>")
}

func TestMarkdownStripsDisallowedMarkup(t *testing.T) {
	renderer := newTestRenderer(false)

	out := string(renderer.Markdown("hello <script>alert('x')</script> world"))
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "alert('x')")
	assert.Contains(t, out, "hello")

	out = string(renderer.Markdown(`<a href="javascript:alert(1)">click</a>`))
	assert.NotContains(t, out, "javascript:")
}

func TestMarkdownKeepsSafeLinks(t *testing.T) {
	renderer := newTestRenderer(false)

	out := string(renderer.Markdown("[home](https://example.com)"))
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, ">home</a>")
}

func TestMarkdownEmptyInput(t *testing.T) {
	renderer := newTestRenderer(false)

	assert.Empty(t, renderer.Markdown(""))
	assert.Empty(t, renderer.Markdown("   \n\t"))
}

func TestMarkdownHardWraps(t *testing.T) {
	soft := newTestRenderer(false)
	hard := newTestRenderer(true)

	text := "first line\nsecond line"
	assert.NotContains(t, string(soft.Markdown(text)), "<br")
	assert.Contains(t, string(hard.Markdown(text)), "<br")
}
