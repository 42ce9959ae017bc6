package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits an attribute path of the form object@name.
//
//	"/@version"                -> "/", "version"
//	"/0/DATA/0/matrix@units"   -> "/0/DATA/0/matrix", "units"
//	"meta@source"              -> "/meta", "source"
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	at := strings.LastIndex(path, "@")
	if at < 0 {
		return "", "", fmt.Errorf("%w: %q has no '@'", ErrInvalidPath, path)
	}
	objectPath, attrName = CleanPath(path[:at]), path[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: empty attribute name in %q", ErrInvalidPath, path)
	}
	return objectPath, attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// SplitPath returns the non-empty components of path.
func SplitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// CleanPath returns path with a leading slash and no trailing or repeated
// slashes.
func CleanPath(path string) string {
	return "/" + strings.Join(SplitPath(path), "/")
}
