package conversation

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Spanish

	message.SetString(lang, msgMenu, "¿Qué quieres hacer?")
	message.SetString(lang, btnCreateOrder, "🛒 Registrar pedido")
	message.SetString(lang, btnSubmitReview, "⭐ Enviar reseña")
	message.SetString(lang, btnRegister, "👤 Registrarme")
	message.SetString(lang, btnMarkPaid, "💸 Marcar pagado")
	message.SetString(lang, btnPending, "📋 Reseñas pendientes")
	message.SetString(lang, btnCancel, "Cancelar")
	message.SetString(lang, btnKeepPayPal, "Usar %s")
	message.SetString(lang, btnChangePayPal, "Usar otro PayPal")
	message.SetString(lang, btnPaidProof, "Enviar comprobante")
	message.SetString(lang, btnPaidNoProof, "Marcar sin comprobante")
	message.SetString(lang, btnAdvance, "Reseña enviada %s")

	message.SetString(lang, msgCancelled, "Operación cancelada.")
	message.SetString(lang, msgFailure, "Lo siento, algo salió mal. Vuelve a intentarlo desde el menú.")
	message.SetString(lang, msgDenied, "No tienes permiso para hacer eso.")
	message.SetString(lang, msgExpired, "Tu sesión ha caducado por inactividad. Escribe /start para empezar de nuevo.")
	message.SetString(lang, msgNotFound, "No encontré ningún pedido con el número %s.")
	message.SetString(lang, msgDuplicate, "El pedido %s ya está registrado.")
	message.SetString(lang, msgTooManyAttempts, "Demasiadas respuestas no válidas. Empecemos de nuevo desde el menú.")

	message.SetString(lang, msgRegisterProfile, "Dime quién eres como comprador: el nombre de tu perfil o un enlace a él.")
	message.SetString(lang, msgRegisterPayPal, "¿Cuál es tu correo de PayPal?")
	message.SetString(lang, msgRegisterIntermediaries, "¿Quién te recomendó? Escribe los @usuarios separados por comas, o \"ninguno\".")
	message.SetString(lang, msgRegisterDone, "¡Listo! Ya estás registrado.")

	message.SetString(lang, msgOrderID, "Envíame el número de pedido (formato 111-2233445-6677889).")
	message.SetString(lang, msgOrderProof, "Ahora envía una captura de la compra.")
	message.SetString(lang, msgOrderCreated, "Pedido %s registrado. Estado: %s.")

	message.SetString(lang, msgPayPalChoice, "Tengo registrado el PayPal %s. ¿Lo usamos?")
	message.SetString(lang, msgPayPal, "Escribe tu correo de PayPal.")

	message.SetString(lang, msgReviewLink, "Envíame el enlace de tu reseña.")
	message.SetString(lang, msgReviewOrderID, "¿A qué número de pedido corresponde la reseña?")
	message.SetString(lang, msgReviewSubmitted, "Reseña recibida para el pedido %s. Te avisaremos cuando se pague.")
	message.SetString(lang, msgReviewNotice, "Nueva reseña\nPedido: %s\nUsuario: @%s\nReseña: %s\nPayPal: %s")

	message.SetString(lang, msgPaidOrderID, "¿Qué número de pedido quieres marcar como pagado?")
	message.SetString(lang, msgPaidChoice, "Pedido %s. ¿Quieres enviar el comprobante de pago?")
	message.SetString(lang, msgPaidAwaitingProof, "Envía la imagen del comprobante de pago.")
	message.SetString(lang, msgPaidDone, "Pedido %s marcado como pagado.")
	message.SetString(lang, msgPaidOwnerNotice, "💸 Tu pedido %s ha sido pagado. ¡Gracias!")
	message.SetString(lang, msgPaidOwnerUnknown, "Pedido %s pagado, pero no sé en qué chat avisar al comprador.")

	message.SetString(lang, msgPendingEmpty, "No hay reseñas pendientes.")
	message.SetString(lang, msgPendingHeader, "Reseñas pendientes (%d):")
	message.SetString(lang, msgPendingItem, "• %s: %s")

	message.SetString(lang, msgAdvanceDone, "Pedido %s: %s.")
	message.SetString(lang, msgAdvanceSkipped, "El pedido %s está en estado %s; no lo he cambiado.")

	message.SetString(lang, invalidPrefix+"paypal", "Ese correo de PayPal no es válido. Inténtalo de nuevo.")
	message.SetString(lang, invalidPrefix+"order_id", "Ese número de pedido no es válido. Usa el formato 111-2233445-6677889.")
	message.SetString(lang, invalidPrefix+"review_link", "Ese enlace no parece una reseña de Amazon. Inténtalo de nuevo.")
	message.SetString(lang, invalidPrefix+"proof", "Necesito una imagen. Envía una captura.")
	message.SetString(lang, invalidPrefix+"profile", "Necesito tu perfil de comprador, un nombre o un enlace.")
	message.SetString(lang, invalidPrefix+"choice", "Elige una de las opciones.")
}
