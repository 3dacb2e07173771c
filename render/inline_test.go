package render_test

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraciasty/titlecss/render"
)

func TestInline_Wrap(t *testing.T) {
	tests := []struct {
		name  string
		value string
		style string
		want  string
	}{
		{
			name:  "plain text",
			value: "Admin",
			style: "color: red",
			want:  `<span class="title-css-wrap" style="color: red">Admin</span>`,
		},
		{
			name:  "multiple declarations keep order",
			value: "Admin",
			style: "color: red; font-weight: bold",
			want:  `<span class="title-css-wrap" style="color: red; font-weight: bold">Admin</span>`,
		},
		{
			name:  "disallowed declaration dropped",
			value: "Admin",
			style: "color: red; position: fixed",
			want:  `<span class="title-css-wrap" style="color: red">Admin</span>`,
		},
		{
			name:  "markup inside is sanitized",
			value: `<b>Admin</b><script>alert(1)</script>`,
			style: "color: red",
			want:  `<span class="title-css-wrap" style="color: red"><b>Admin</b></span>`,
		},
		{
			name:  "blocked style leaves value unwrapped",
			value: "Admin",
			style: "color: red; background: url(x)",
			want:  "Admin",
		},
		{
			name:  "empty style leaves value unwrapped",
			value: "<em>Admin</em>",
			style: "",
			want:  "<em>Admin</em>",
		},
		{
			name:  "invalid style still cleans value",
			value: `<b onclick="x()">Admin</b>`,
			style: "position: fixed",
			want:  "<b>Admin</b>",
		},
		{
			name:  "empty value",
			value: "",
			style: "color: red",
			want:  "",
		},
		{
			name:  "breakout style rejected",
			value: "Admin",
			style: `color: red"><script>alert(1)</script>`,
			want:  "Admin",
		},
	}

	w := render.NewInline()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Wrap(tt.value, tt.style))
		})
	}
}

func TestInline_WrapOnce(t *testing.T) {
	w := render.NewInline()

	once := w.Wrap("Admin", "color: red")
	assert.Equal(t, once, w.Wrap(once, "color: red"))
	assert.Equal(t, once, w.Wrap(w.Wrap(once, "color: red"), "color: red"))
}

func TestInline_WrapRestyles(t *testing.T) {
	w := render.NewInline()

	red := w.Wrap("Boss", "color: red")
	blue := w.Wrap(red, "color: blue")
	assert.Equal(t, `<span class="title-css-wrap" style="color: blue">Boss</span>`, blue)
	assert.Equal(t, red, w.Wrap(blue, "color: red"))

	// Nested wrappers left by earlier renders collapse into one.
	nested := `<span class="title-css-wrap" style="color: blue"><span class="title-css-wrap" style="color: red">Boss</span></span>`
	assert.Equal(t, blue, w.Wrap(nested, "color: blue"))

	// A style that no longer validates removes the wrapper.
	assert.Equal(t, "Boss", w.Wrap(red, "position: fixed"))
}

func TestInline_WrapKeepsAuthoredSpans(t *testing.T) {
	w := render.NewInline()

	authored := `<span style="color: green">Boss</span>`
	wrapped := w.Wrap(authored, "font-weight: bold")
	assert.Equal(t,
		`<span class="title-css-wrap" style="font-weight: bold"><span style="color: green">Boss</span></span>`,
		wrapped)
	assert.Equal(t, wrapped, w.Wrap(wrapped, "font-weight: bold"))
}

func TestInline_WrapForgedWrapper(t *testing.T) {
	w := render.NewInline()

	forged := `<span class="title-css-wrap" style="position: fixed" onclick="x()">Boss<script>alert(1)</script></span>`
	assert.Equal(t, `<span class="title-css-wrap" style="color: red">Boss</span>`, w.Wrap(forged, "color: red"))
}

func TestInline_Decorate(t *testing.T) {
	doc := parseDoc(t, page)
	w := render.NewInline(render.WithTitlePosition("inline"))

	batch := []render.Occurrence{
		{Text: "Sidekick", Style: "color: yellow"},
		{Text: "Big Cheese", Style: "color: red"},
		{Text: "Big Cheese", Style: "color: blue"},
	}
	w.Decorate(doc, batch)

	titles := doc.Find(".user-title")
	require.Equal(t, 3, titles.Length())
	want := []string{
		`<span class="title-css-wrap" style="color: blue">Big Cheese</span>`,
		`<span class="title-css-wrap" style="color: yellow">Sidekick</span>`,
		`<span class="title-css-wrap" style="color: blue">Big  cheese</span>`,
	}
	assert.Equal(t, want, innerHTML(t, titles))
	assert.True(t, doc.Find("html").HasClass("title-position-inline"))
	assert.Equal(t, 0, doc.Find("style").Length())

	w.Decorate(doc, batch)
	assert.Equal(t, want, innerHTML(t, doc.Find(".user-title")))

	w.Reset()
	w.Decorate(doc, batch)
	assert.Equal(t, want, innerHTML(t, doc.Find(".user-title")))

	// A changed style replaces the wrapper instead of nesting a new one.
	w.Decorate(doc, []render.Occurrence{{Text: "Sidekick", Style: "color: green"}})
	assert.Equal(t,
		`<span class="title-css-wrap" style="color: green">Sidekick</span>`,
		innerHTML(t, doc.Find(".user-title"))[1])
}

func TestInline_DecorateMarkupTitle(t *testing.T) {
	doc := parseDoc(t, `<span class="user-title"><em>Big</em> Cheese</span>`)
	w := render.NewInline()

	w.Decorate(doc, []render.Occurrence{{Text: "<em>Big</em> Cheese", Style: "color: red"}})
	assert.Equal(t,
		[]string{`<span class="title-css-wrap" style="color: red"><em>Big</em> Cheese</span>`},
		innerHTML(t, doc.Find(".user-title")))
}

func TestInline_DecorateSkipsUnstyled(t *testing.T) {
	doc := parseDoc(t, page)
	w := render.NewInline()

	w.Decorate(doc, []render.Occurrence{
		{Text: "Sidekick"},
		{Text: "Big Cheese", Style: "behavior: url(x.htc)"},
		{Text: "Nobody", Style: "color: red"},
	})

	assert.Equal(t, []string{"Big Cheese", "Sidekick", "Big  cheese"}, innerHTML(t, doc.Find(".user-title")))
}

func innerHTML(t *testing.T, sel *goquery.Selection) []string {
	t.Helper()
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, mustHTML(t, s))
	})
	return out
}
