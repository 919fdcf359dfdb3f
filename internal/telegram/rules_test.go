package telegram

import "testing"

func TestRoute(t *testing.T) {
	cases := []struct {
		text       string
		private    bool
		replyToBot bool
		want       action
	}{
		{"бот, замолчи", false, false, actBlock},
		{"бот заткнись", false, false, actBlock},
		{"замолчи", false, false, actTranslate},
		{"замолчи", true, false, actBlock},
		{"Бот, вернись", false, false, actUnblock},
		{"вернись", false, true, actUnblock},
		{"бот, забудь всё", false, false, actForget},
		{"забудь", true, false, actForget},
		{"Бинг, что нового", false, false, actBing},
		{"бард расскажи", false, false, actBard},
		{"клод, привет", true, false, actClaude},
		{"бот, привет", false, false, actGPT},
		{"привет", true, false, actGPT},
		{"привет", false, true, actGPT},
		{"привет", false, false, actTranslate},
		{"ботинки купил", false, false, actTranslate},
		{"бингобонго", false, false, actTranslate},
	}
	for _, c := range cases {
		if got := route(c.text, "бот", c.private, c.replyToBot); got != c.want {
			t.Errorf("route(%q, private=%v, reply=%v) = %v, want %v", c.text, c.private, c.replyToBot, got, c.want)
		}
	}
}

func TestRouteCustomName(t *testing.T) {
	if got := route("алиса, замолчи", "алиса", false, false); got != actBlock {
		t.Errorf("got %v, want block", got)
	}
	if got := route("бот, привет", "алиса", false, false); got != actTranslate {
		t.Errorf("old name still answers: %v", got)
	}
}

func TestIsClaudeCaption(t *testing.T) {
	for caption, want := range map[string]bool{
		"клод":               true,
		"клод, что в файле?": true,
		"клод\nперескажи":    true,
		"клодия":             false,
		"":                   false,
	} {
		if got := isClaudeCaption(caption); got != want {
			t.Errorf("isClaudeCaption(%q) = %v, want %v", caption, got, want)
		}
	}
}
