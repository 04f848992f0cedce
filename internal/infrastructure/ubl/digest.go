package ubl

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"

	"github.com/ucarion/c14n"
)

// Canonicalize aplica C14N 1.0 al documento. La declaración XML no forma parte de la forma canónica.
func Canonicalize(data []byte) ([]byte, error) {
	data = stripDeclaration(data)
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return nil, fmt.Errorf("ubl: canonicalizar XML: %w", err)
	}
	return out, nil
}

// Digest devuelve el SHA-256 (base64) de la forma canónica del documento.
// Dos documentos equivalentes en C14N producen el mismo digest.
func Digest(data []byte) (string, error) {
	canonical, err := Canonicalize(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func stripDeclaration(data []byte) []byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("<?xml")) {
		return data
	}
	end := bytes.Index(trimmed, []byte("?>"))
	if end < 0 {
		return data
	}
	return trimmed[end+2:]
}
