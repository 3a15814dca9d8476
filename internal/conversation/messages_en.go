package conversation

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, msgMenu, "What would you like to do?")
	message.SetString(lang, btnCreateOrder, "🛒 Register order")
	message.SetString(lang, btnSubmitReview, "⭐ Submit review")
	message.SetString(lang, btnRegister, "👤 Sign up")
	message.SetString(lang, btnMarkPaid, "💸 Mark paid")
	message.SetString(lang, btnPending, "📋 Pending reviews")
	message.SetString(lang, btnCancel, "Cancel")
	message.SetString(lang, btnKeepPayPal, "Use %s")
	message.SetString(lang, btnChangePayPal, "Use another PayPal")
	message.SetString(lang, btnPaidProof, "Send proof")
	message.SetString(lang, btnPaidNoProof, "Mark without proof")
	message.SetString(lang, btnAdvance, "Review forwarded %s")

	message.SetString(lang, msgCancelled, "Cancelled.")
	message.SetString(lang, msgFailure, "Sorry, something went wrong. Please start again from the menu.")
	message.SetString(lang, msgDenied, "You are not allowed to do that.")
	message.SetString(lang, msgExpired, "Your session expired after inactivity. Send /start to begin again.")
	message.SetString(lang, msgNotFound, "I could not find an order with number %s.")
	message.SetString(lang, msgDuplicate, "Order %s is already registered.")
	message.SetString(lang, msgTooManyAttempts, "Too many invalid answers. Let's start over from the menu.")

	message.SetString(lang, msgRegisterProfile, "Tell me who you are as a buyer: your profile name or a link to it.")
	message.SetString(lang, msgRegisterPayPal, "What is your PayPal email?")
	message.SetString(lang, msgRegisterIntermediaries, "Who referred you? Send their @handles separated by commas, or \"none\".")
	message.SetString(lang, msgRegisterDone, "Done! You are registered.")

	message.SetString(lang, msgOrderID, "Send me the order number (format 111-2233445-6677889).")
	message.SetString(lang, msgOrderProof, "Now send a screenshot of the purchase.")
	message.SetString(lang, msgOrderCreated, "Order %s registered. Status: %s.")

	message.SetString(lang, msgPayPalChoice, "I have %s as your PayPal. Use it?")
	message.SetString(lang, msgPayPal, "Send your PayPal email.")

	message.SetString(lang, msgReviewLink, "Send me the link to your review.")
	message.SetString(lang, msgReviewOrderID, "Which order number is the review for?")
	message.SetString(lang, msgReviewSubmitted, "Review received for order %s. We will let you know when it is paid.")
	message.SetString(lang, msgReviewNotice, "New review\nOrder: %s\nUser: @%s\nReview: %s\nPayPal: %s")

	message.SetString(lang, msgPaidOrderID, "Which order number should be marked as paid?")
	message.SetString(lang, msgPaidChoice, "Order %s. Do you want to send a payment proof?")
	message.SetString(lang, msgPaidAwaitingProof, "Send the payment proof image.")
	message.SetString(lang, msgPaidDone, "Order %s marked as paid.")
	message.SetString(lang, msgPaidOwnerNotice, "💸 Your order %s has been paid. Thank you!")
	message.SetString(lang, msgPaidOwnerUnknown, "Order %s is paid, but I do not know which chat to notify the buyer in.")

	message.SetString(lang, msgPendingEmpty, "No pending reviews.")
	message.SetString(lang, msgPendingHeader, "Pending reviews (%d):")
	message.SetString(lang, msgPendingItem, "• %s: %s")

	message.SetString(lang, msgAdvanceDone, "Order %s: %s.")
	message.SetString(lang, msgAdvanceSkipped, "Order %s is in status %s; left unchanged.")

	message.SetString(lang, invalidPrefix+"paypal", "That PayPal email is not valid. Please try again.")
	message.SetString(lang, invalidPrefix+"order_id", "That order number is not valid. Use the format 111-2233445-6677889.")
	message.SetString(lang, invalidPrefix+"review_link", "That link does not look like an Amazon review. Please try again.")
	message.SetString(lang, invalidPrefix+"proof", "I need an image. Please send a screenshot.")
	message.SetString(lang, invalidPrefix+"profile", "I need your buyer profile, a name or a link.")
	message.SetString(lang, invalidPrefix+"choice", "Please pick one of the options.")
}
