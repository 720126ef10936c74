package convention

import "testing"

func TestPluralize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"widget", "widgets"},
		{"box", "boxes"},
		{"church", "churches"},
		{"category", "categories"},
		{"day", "days"},
		{"knife", "knives"},
		{"leaf", "leaves"},
		{"person", "people"},
		{"Person", "People"},
		{"status", "statuses"},
	}
	for _, tt := range tests {
		if got := Pluralize(tt.in); got != tt.want {
			t.Errorf("Pluralize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnderscore(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Widget", "widget"},
		{"BlogPost", "blog_post"},
		{"HTTPServer", "http_server"},
		{"blog-post", "blog_post"},
		{"already_snake", "already_snake"},
		{"Version2Name", "version2_name"},
	}
	for _, tt := range tests {
		if got := Underscore(tt.in); got != tt.want {
			t.Errorf("Underscore(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResourceKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Widget", "widget"},
		{"BlogPost", "blog_post"},
		{"billing.Invoice", "invoice"},
		// Names ending in "s" are kept whole.
		{"Alias", "alias"},
		{"Canvas", "canvas"},
		{"Lens", "lens"},
		{"Status", "status"},
		{"Address", "address"},
		{"News", "news"},
		{"Databases", "databases"},
		{"Courses", "courses"},
		{"Caches", "caches"},
		{"Movies", "movies"},
	}
	for _, tt := range tests {
		if got := ResourceKey(tt.in); got != tt.want {
			t.Errorf("ResourceKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollectionPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Widget", "/widgets"},
		{"LineItem", "/line_items"},
		{"Category", "/categories"},
		{"Alias", "/aliases"},
		{"Person", "/people"},
		{"billing.Invoice", "/invoices"},
	}
	for _, tt := range tests {
		if got := CollectionPath(tt.in); got != tt.want {
			t.Errorf("CollectionPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHumanizeAndTitleize(t *testing.T) {
	tests := []struct {
		in, human, title string
	}{
		{"my_first-post", "My first post", "My First Post"},
		{"author_id", "Author", "Author"},
		{"  spaced__out ", "Spaced out", "Spaced Out"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := Humanize(tt.in); got != tt.human {
			t.Errorf("Humanize(%q) = %q, want %q", tt.in, got, tt.human)
		}
		if got := Titleize(tt.in); got != tt.title {
			t.Errorf("Titleize(%q) = %q, want %q", tt.in, got, tt.title)
		}
	}
}
