package parser

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

type jsonFile struct {
	PublicKey  string       `json:"public_key"`
	Data       string       `json:"data"`
	PrivateKey string       `json:"private_key,omitempty"`
	Signatures []jsonRecord `json:"signatures"`
}

type jsonRecord struct {
	R       string `json:"r"`
	S       string `json:"s"`
	Elapsed int64  `json:"elapsed"`
}

// ReadJSON parses the JSON format:
//
//	{
//	  "public_key": "04...", "data": "...", "private_key": "0x...",
//	  "signatures": [{"r": "0x...", "s": "0x...", "elapsed": 1234}]
//	}
//
// r and s may also be given as decimal strings or numbers.
func ReadJSON(r io.Reader) (*File, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber() // Preserve large numbers as json.Number instead of float64

	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	f := &File{}
	pub, ok := raw["public_key"].(string)
	if !ok {
		return nil, fmt.Errorf("missing public_key field: %w", ErrFormat)
	}
	var err error
	if f.PublicKey, err = decodeHex(pub); err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	if data, ok := raw["data"].(string); ok {
		if f.Data, err = decodeHex(data); err != nil {
			return nil, fmt.Errorf("failed to parse data: %w", err)
		}
	}
	if priv, ok := raw["private_key"]; ok {
		if s, isString := priv.(string); isString {
			f.PrivateKey, err = parseHexInt(s)
		} else {
			f.PrivateKey, err = parseBigInt(priv)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
	}

	items, ok := raw["signatures"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("missing signatures field: %w", ErrFormat)
	}
	f.Records = make([]Record, 0, len(items))
	for i, it := range items {
		item, ok := it.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("signature %d is not an object: %w", i, ErrFormat)
		}
		rec, err := parseJSONRecord(item)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		f.Records = append(f.Records, rec)
	}
	return f, nil
}

func parseJSONRecord(item map[string]interface{}) (Record, error) {
	rVal, ok := item["r"]
	if !ok {
		return Record{}, fmt.Errorf("missing r field: %w", ErrFormat)
	}
	r, err := parseBigInt(rVal)
	if err != nil {
		return Record{}, fmt.Errorf("failed to parse r: %w", err)
	}
	sVal, ok := item["s"]
	if !ok {
		return Record{}, fmt.Errorf("missing s field: %w", ErrFormat)
	}
	s, err := parseBigInt(sVal)
	if err != nil {
		return Record{}, fmt.Errorf("failed to parse s: %w", err)
	}

	var elapsed int64
	switch v := item["elapsed"].(type) {
	case nil:
	case json.Number:
		if elapsed, err = v.Int64(); err != nil {
			return Record{}, fmt.Errorf("failed to parse elapsed: %w", err)
		}
	case string:
		if elapsed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Record{}, fmt.Errorf("failed to parse elapsed: %w", err)
		}
	default:
		return Record{}, fmt.Errorf("elapsed has unsupported type %T: %w", v, ErrFormat)
	}
	return Record{R: r, S: s, Elapsed: elapsed}, nil
}

// WriteJSON writes f in the format read by ReadJSON.
func WriteJSON(w io.Writer, f *File) error {
	out := jsonFile{
		PublicKey:  hex.EncodeToString(f.PublicKey),
		Data:       hex.EncodeToString(f.Data),
		Signatures: make([]jsonRecord, len(f.Records)),
	}
	if f.PrivateKey != nil {
		out.PrivateKey = "0x" + f.PrivateKey.Text(16)
	}
	for i, rec := range f.Records {
		out.Signatures[i] = jsonRecord{
			R:       "0x" + rec.R.Text(16),
			S:       "0x" + rec.S.Text(16),
			Elapsed: rec.Elapsed,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
