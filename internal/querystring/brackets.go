package querystring

import (
	"fmt"
	"strings"
)

const (
	openBracket  = '['
	closeBracket = ']'
)

// splitKey splits "filter[0][value][1]" into "filter" and [0 value 1].
func splitKey(key string) (base string, segments []string, err error) {
	i := strings.IndexByte(key, openBracket)
	if i == -1 {
		if strings.IndexByte(key, closeBracket) != -1 {
			return "", nil, fmt.Errorf("%w: closing bracket without opening bracket in %q", ErrInvalidQuery, key)
		}
		return key, nil, nil
	}
	segments, err = splitBracketParameter(key[i:])
	if err != nil {
		return "", nil, err
	}
	return key[:i], segments, nil
}

// splitBracketParameter returns the values enclosed in '[' and ']'.
func splitBracketParameter(bracketed string) (values []string, err error) {
	doubleOpen := func() error {
		return fmt.Errorf("%w: opening bracket without closing bracket in %q", ErrInvalidQuery, bracketed)
	}

	startIndex := -1
	endIndex := -1
	for i := 0; i < len(bracketed); i++ {
		switch bracketed[i] {
		case openBracket:
			if startIndex > endIndex {
				return nil, doubleOpen()
			}
			startIndex = i
		case closeBracket:
			// no opening bracket, or a second closing one
			if startIndex == -1 || startIndex < endIndex {
				return nil, fmt.Errorf("%w: closing bracket without opening bracket in %q", ErrInvalidQuery, bracketed)
			}
			endIndex = i
			values = append(values, bracketed[startIndex+1:endIndex])
		}
	}
	if (startIndex != -1 && endIndex == -1) || startIndex > endIndex {
		return nil, doubleOpen()
	}
	return values, nil
}
