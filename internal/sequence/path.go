package sequence

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizePath returns the canonical form of an asset path: NFC-normalized,
// trimmed, and with the redundant ".Name" object suffix removed when it
// repeats the package name ("/Game/A/B.B" becomes "/Game/A/B").
//
// Canonical paths are the identity of a sequence: two references to the same
// asset compare equal only after normalization.
func NormalizePath(p string) string {
	p = norm.NFC.String(strings.TrimSpace(p))
	pkg, obj, ok := strings.Cut(p, ".")
	if ok && obj == path.Base(pkg) {
		return pkg
	}
	return p
}

// Key is the matching key for a sequence path.
func Key(p string) string {
	return NormalizePath(p)
}

// SamePath reports whether two asset paths refer to the same sequence.
func SamePath(a, b string) bool {
	return Key(a) == Key(b)
}

// AssetName returns the asset name: the last path element without any
// object suffix ("/Game/Shots/sh010.sh010" -> "sh010").
func AssetName(p string) string {
	pkg, _, _ := strings.Cut(NormalizePath(p), ".")
	return path.Base(pkg)
}

// PackageDir returns the folder containing the asset.
func PackageDir(p string) string {
	pkg, _, _ := strings.Cut(NormalizePath(p), ".")
	return path.Dir(pkg)
}

// ObjectPath returns the full "/Dir/Name.Name" object path.
func ObjectPath(p string) string {
	n := NormalizePath(p)
	if strings.Contains(n, ".") {
		return n
	}
	return n + "." + path.Base(n)
}

// ValidatePath checks an asset path is absolute, has a mount point and a
// name, and contains no characters asset names cannot hold.
func ValidatePath(p string) error {
	n := NormalizePath(p)
	if n == "" {
		return fmt.Errorf("invalid sequence path: empty")
	}
	if !strings.HasPrefix(n, "/") {
		return fmt.Errorf("invalid sequence path %q: must be absolute", p)
	}
	pkg, _, _ := strings.Cut(n, ".")
	parts := strings.Split(strings.TrimPrefix(pkg, "/"), "/")
	if len(parts) < 2 {
		return fmt.Errorf("invalid sequence path %q: needs a mount point and a name", p)
	}
	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("invalid sequence path %q: empty path element", p)
		}
		if strings.ContainsAny(part, ` \:*?"<>|,'`) {
			return fmt.Errorf("invalid sequence path %q: illegal character in %q", p, part)
		}
	}
	return nil
}

// CommonDir returns the longest folder shared by all paths ("" for none).
func CommonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	common := strings.Split(PackageDir(paths[0]), "/")
	for _, p := range paths[1:] {
		parts := strings.Split(PackageDir(p), "/")
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	return strings.Join(common, "/")
}
