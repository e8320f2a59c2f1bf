// utilitário pequeno para formatação consistente de valores numéricos nas linhas de log.

package reqctx

import (
	"strconv"
	"time"
)

// formatMillis formata d em milissegundos com exatamente duas casas decimais.
func formatMillis(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 2, 64)
}
