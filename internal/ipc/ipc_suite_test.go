package ipc_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIPC(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "IPC Suite")
}
