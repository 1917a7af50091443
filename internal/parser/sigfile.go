// Package parser reads and writes signature files: a shared public key and
// signed message followed by one (r, s, elapsed) record per signature.
package parser

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
)

// ErrFormat is returned for malformed signature files.
var ErrFormat = errors.New("parser: malformed signature file")

// File is the content of a signature file.
type File struct {
	PublicKey []byte // encoded public point
	Data      []byte // message signed by every record
	// PrivateKey is only present in files from controlled experiments.
	PrivateKey *big.Int
	Records    []Record
}

// Record is a single signature with its measured duration.
type Record struct {
	R       *big.Int
	S       *big.Int
	Elapsed int64
}

// Format selects the on-disk encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown signature file format %q", s)
	}
}

// ParseFile reads a signature file from disk.
func ParseFile(path string, format Format) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatCSV:
		return ReadCSV(file)
	case FormatJSON:
		return ReadJSON(file)
	default:
		return nil, fmt.Errorf("unknown signature file format %q", format)
	}
}

// WriteFile writes f to path, replacing any existing file.
func WriteFile(path string, format Format, f *File) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	switch format {
	case FormatCSV:
		err = WriteCSV(file, f)
	case FormatJSON:
		err = WriteJSON(file, f)
	default:
		err = fmt.Errorf("unknown signature file format %q", format)
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func parseHexInt(s string) (*big.Int, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	z, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex number %q: %w", s, ErrFormat)
	}
	return z, nil
}

// parseBigInt parses a big integer from a JSON value. Strings with a 0x
// prefix or hex letters are read as hex, other strings and numbers as
// decimal.
func parseBigInt(val interface{}) (*big.Int, error) {
	switch v := val.(type) {
	case string:
		if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") ||
			strings.ContainsAny(v, "abcdefABCDEF") {
			return parseHexInt(v)
		}
		z := new(big.Int)
		if _, ok := z.SetString(v, 10); !ok {
			return nil, fmt.Errorf("invalid number format: %s", v)
		}
		return z, nil

	case json.Number:
		// json.Number preserves precision for large integers
		z := new(big.Int)
		if _, ok := z.SetString(string(v), 10); !ok {
			return nil, fmt.Errorf("invalid number format: %s", v)
		}
		return z, nil

	case float64:
		s := fmt.Sprintf("%.0f", v)
		z := new(big.Int)
		if _, ok := z.SetString(s, 10); !ok {
			return nil, fmt.Errorf("invalid number format: %v", v)
		}
		return z, nil

	case int64:
		return big.NewInt(v), nil

	case int:
		return big.NewInt(int64(v)), nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", val)
	}
}
