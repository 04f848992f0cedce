package portstest_test

import (
	"testing"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports/portstest"
)

func TestFakeAdapterCumpleContrato(t *testing.T) {
	portstest.RunAdapterContract(t, &portstest.FakeAdapter{Healthy: true})
}
