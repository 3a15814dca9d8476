package sheet

// Profile describes the column layout of one ledger export. Headers are
// compared after case folding, so only the spelling matters.
type Profile struct {
	Name string

	KeyCol    []string
	StatusCol []string

	// Optional columns. Missing ones leave the field empty.
	PayPalCol  []string
	HandleCol  []string
	ProfileCol []string
	ProofCol   []string
	ReviewCol  []string
}

// profiles is tried in order during detection.
var profiles = []Profile{
	{
		Name:       "hoja",
		KeyCol:     []string{"NUMERO", "NÚMERO", "NUMERO DE PEDIDO", "PEDIDO"},
		StatusCol:  []string{"ESTADO"},
		PayPalCol:  []string{"PAYPAL"},
		HandleCol:  []string{"USUARIO", "TELEGRAM"},
		ProfileCol: []string{"PERFIL"},
		ProofCol:   []string{"CAPTURA", "PRUEBA"},
		ReviewCol:  []string{"RESEÑA", "RESENA"},
	},
	{
		Name:       "export",
		KeyCol:     []string{"key", "order_id"},
		StatusCol:  []string{"status"},
		PayPalCol:  []string{"paypal"},
		HandleCol:  []string{"handle", "owner_handle"},
		ProfileCol: []string{"profile_link"},
		ProofCol:   []string{"proof_ref"},
		ReviewCol:  []string{"review_link"},
	},
}
