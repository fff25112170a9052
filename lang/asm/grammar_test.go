package asm

import (
	"os"
	"testing"

	"golang.org/x/exp/ebnf"
)

func TestListingEBNF(t *testing.T) {
	const filename = "listing.ebnf"

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := ebnf.Parse(filename, f)
	if err != nil {
		t.Fatal(err)
	}
	if err := ebnf.Verify(g, "Listing"); err != nil {
		t.Fatal(err)
	}
}
