// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - UUIDGenerator: ids de correlação com github.com/google/uuid
//   - MemoryStatsStore: contadores de conclusão em memória (testes/dev)
//   - RedisStatsStore: contadores de conclusão no Redis, por minuto e por rota
package infra
