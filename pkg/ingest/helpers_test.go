package ingest_test

import "os"

func readTestPDF() ([]byte, error) {
	return os.ReadFile("../extractor/testdata/lease.pdf")
}
