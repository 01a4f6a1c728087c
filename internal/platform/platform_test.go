package platform

import (
	"testing"
)

func TestParseRef(t *testing.T) {
	t.Parallel()

	link := "https://discord.com/channels/915746011757019217/930035531889401866/944172931141992468"
	ref, ok := ParseRef(link)
	if !ok {
		t.Fatalf("expected link to parse: %s", link)
	}
	if ref.GuildID != "915746011757019217" || ref.ChannelID != "930035531889401866" || ref.MessageID != "944172931141992468" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	if ref.URL() != link {
		t.Fatalf("round trip mismatch: %s", ref.URL())
	}
}

func TestParseRefRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "not a link", "https://discord.com/channels/123/456"} {
		if _, ok := ParseRef(s); ok {
			t.Fatalf("expected parse failure for %q", s)
		}
	}
}
