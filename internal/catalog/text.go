package catalog

import "strings"

// Mojibake is how "£" reads when its UTF-8 bytes are decoded as Latin-1.
const Mojibake = "Â£"

// PoundSign is the currency symbol the catalog prices use.
const PoundSign = "£"

// FixMojibake restores mis-decoded pound signs.
func FixMojibake(s string) string {
	return strings.ReplaceAll(s, Mojibake, PoundSign)
}
