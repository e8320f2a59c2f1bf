// Package shutdown coordena o encerramento ordenado do processo.
//
// Um Coordinator começa em Running. O primeiro gatilho (sinal do SO, falha
// fatal de uma goroutine ou chamada direta a Trigger) muda a fase para
// Draining, e os recursos registrados são encerrados um de cada vez, na
// ordem de registro. Em paralelo corre um timer de prazo fixo:
//
//   - todos os recursos encerraram antes do prazo: saída 0 (o timer é parado);
//   - algum recurso falhou: a falha é logada e a saída é 1, sem rodar os
//     recursos seguintes;
//   - o prazo venceu: saída 1 imediatamente, seja qual for o progresso.
//
// Gatilhos seguintes durante Draining são ignorados.
package shutdown
