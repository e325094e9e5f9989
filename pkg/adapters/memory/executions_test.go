package memory_test

import (
	"testing"

	"github.com/aretw0/fluxo/pkg/adapters/memory"
	"github.com/aretw0/fluxo/pkg/ports"
	contract "github.com/aretw0/fluxo/pkg/ports/tests"
)

func TestExecutionRepository_Contract(t *testing.T) {
	contract.ExecutionRepositoryContractTest(t, func(t *testing.T) ports.ExecutionRepository {
		return memory.NewExecutionRepository()
	})
}
