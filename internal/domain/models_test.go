package domain

import "testing"

func TestNewFeedItemDefaultsPublished(t *testing.T) {
	item := NewFeedItem(" Faille X ", "https://cert.fr/x", "   ")
	if item.Published != NotAvailable {
		t.Fatalf("expected %q, got %q", NotAvailable, item.Published)
	}
	if item.Title != "Faille X" {
		t.Fatalf("expected trimmed title, got %q", item.Title)
	}
}

func TestNewFeedItemKeepsPublishedText(t *testing.T) {
	item := NewFeedItem("t", "l", "01/01/2025")
	if item.Published != "01/01/2025" {
		t.Fatalf("unexpected published %q", item.Published)
	}
}
