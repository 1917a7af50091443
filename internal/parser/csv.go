package parser

import (
	"bufio"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV parses the line-oriented format:
//
//	<pubkey hex> <data hex> [<private key hex>]
//	<r hex>,<s hex>,<elapsed>
//	...
func ReadCSV(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || header == "") {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	fields := strings.Fields(header)
	if len(fields) < 2 || len(fields) > 3 {
		return nil, fmt.Errorf("header has %d fields, want 2 or 3: %w", len(fields), ErrFormat)
	}

	f := &File{}
	if f.PublicKey, err = decodeHex(fields[0]); err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	if f.Data, err = decodeHex(fields[1]); err != nil {
		return nil, fmt.Errorf("failed to parse data: %w", err)
	}
	if len(fields) == 3 {
		if f.PrivateKey, err = parseHexInt(fields[2]); err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
	}

	reader := csv.NewReader(br)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = 3
	reader.ReuseRecord = true

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		rec, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		f.Records = append(f.Records, rec)
	}
	return f, nil
}

func parseRecord(record []string) (Record, error) {
	r, err := parseHexInt(record[0])
	if err != nil {
		return Record{}, fmt.Errorf("failed to parse r: %w", err)
	}
	s, err := parseHexInt(record[1])
	if err != nil {
		return Record{}, fmt.Errorf("failed to parse s: %w", err)
	}
	elapsed, err := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("failed to parse elapsed: %w", err)
	}
	return Record{R: r, S: s, Elapsed: elapsed}, nil
}

// WriteCSV writes f in the format read by ReadCSV.
func WriteCSV(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)
	header := hex.EncodeToString(f.PublicKey) + " " + hex.EncodeToString(f.Data)
	if f.PrivateKey != nil {
		header += " " + f.PrivateKey.Text(16)
	}
	if _, err := bw.WriteString(header + "\n"); err != nil {
		return err
	}

	cw := csv.NewWriter(bw)
	for _, rec := range f.Records {
		row := []string{rec.R.Text(16), rec.S.Text(16), strconv.FormatInt(rec.Elapsed, 10)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
