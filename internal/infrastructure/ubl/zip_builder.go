package ubl

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// BundleFile entrada del paquete ZIP.
type BundleFile struct {
	Name    string
	Content []byte
}

// Bundle empaqueta los archivos en un ZIP en memoria, en el orden recibido.
// modified fija la fecha de las entradas para que el resultado sea reproducible.
func Bundle(modified time.Time, files ...BundleFile) ([]byte, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("zip: sin archivos")
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modified.UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("zip: crear entrada %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Content); err != nil {
			return nil, fmt.Errorf("zip: escribir %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

// Filenames nombres base del XML, PDF y ZIP de una factura: {tax_id}{invoice_uuid}.
func Filenames(taxID, invoiceUUID string) (xmlName, pdfName, zipName string) {
	base := onlyAlnum(taxID) + invoiceUUID
	return base + ".xml", base + ".pdf", base + ".zip"
}
