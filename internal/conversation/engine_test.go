package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/ledgerbot/internal/chat"
	"github.com/MrJamesThe3rd/ledgerbot/internal/participant"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record/recordtest"
	"github.com/MrJamesThe3rd/ledgerbot/internal/session"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

const (
	buyer   = "100"
	admin   = "900"
	opsChat = "-500"
	orderID = "111-2233445-6677889"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type outbound struct {
	chatID string
	msg    chat.Message
	image  string
}

const botToken = "123456:SECRET-BOT-TOKEN"

type fakeTransport struct {
	mu  sync.Mutex
	out []outbound
}

func (f *fakeTransport) Send(_ context.Context, chatID string, msg chat.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, outbound{chatID: chatID, msg: msg})
	return nil
}

func (f *fakeTransport) SendImage(_ context.Context, chatID, imageID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, outbound{chatID: chatID, image: imageID})
	return nil
}

func (f *fakeTransport) FileURL(_ context.Context, fileID string) (string, error) {
	return "https://api.telegram.org/file/bot" + botToken + "/photos/" + fileID + ".jpg", nil
}

func (f *fakeTransport) AnswerCallback(context.Context, string) error { return nil }

func (f *fakeTransport) last() outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out[len(f.out)-1]
}

func (f *fakeTransport) to(chatID string) []outbound {
	f.mu.Lock()
	defer f.mu.Unlock()

	var got []outbound
	for _, o := range f.out {
		if o.chatID == chatID {
			got = append(got, o)
		}
	}
	return got
}

type fakeDirectory struct {
	mu      sync.Mutex
	byKey   map[string]*participant.Profile
	upserts []participant.Profile
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{byKey: make(map[string]*participant.Profile)}
}

func (d *fakeDirectory) FindByHandle(_ context.Context, handle string) (*participant.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.byKey {
		if strings.EqualFold(p.Handle, handle) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, participant.ErrNotFound
}

func (d *fakeDirectory) FindByChannel(_ context.Context, channel string) (*participant.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byKey[channel]
	if !ok {
		return nil, participant.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *fakeDirectory) Upsert(_ context.Context, p *participant.Profile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *p
	d.byKey[p.Channel] = &cp
	d.upserts = append(d.upserts, cp)
	return nil
}

type harness struct {
	t         *testing.T
	engine    *Engine
	repo      *recordtest.Memory
	transport *fakeTransport
	directory *fakeDirectory
	store     *session.MemoryStore
	sessions  *session.Manager
}

func newHarness(t *testing.T, opts ...session.Option) *harness {
	t.Helper()

	h := &harness{
		t:         t,
		repo:      recordtest.NewMemory(),
		transport: &fakeTransport{},
		directory: newFakeDirectory(),
		store:     session.NewMemoryStore(),
	}

	records := record.NewService(h.repo,
		record.Ledgers{Primary: "main", Agents: []string{"ana"}},
		record.WithLogger(discard),
		record.WithColorRetry(1, 0),
	)

	opts = append(opts, session.WithExpiryHandler(func(ctx context.Context, key string) {
		h.engine.NotifyExpired(ctx, key)
	}))

	h.sessions = session.NewManager(h.store, 5*time.Minute, opts...)
	t.Cleanup(h.sessions.Close)

	h.engine = NewEngine(records, h.directory, h.sessions, h.transport, Config{
		Admins:       []string{admin},
		OperatorChat: opsChat,
		Language:     language.English,
	}, discard)

	return h
}

func (h *harness) text(from, text string) {
	h.engine.Handle(context.Background(), chat.Event{SenderID: from, ChatID: from, Handle: "user" + from, Text: text})
}

func (h *harness) tap(from, data string) {
	h.engine.Handle(context.Background(), chat.Event{SenderID: from, ChatID: from, Handle: "user" + from, Callback: data, CallbackID: "cb"})
}

func (h *harness) image(from, fileID string) {
	h.engine.Handle(context.Background(), chat.Event{SenderID: from, ChatID: from, Handle: "user" + from, ImageID: fileID})
}

func (h *harness) flow(key string) session.Flow {
	h.t.Helper()

	s, err := h.store.Load(context.Background(), key)
	if errors.Is(err, session.ErrNotFound) {
		return session.Idle{}
	}
	require.NoError(h.t, err)

	return s.Flow
}

func (h *harness) setFlow(key string, f session.Flow) {
	h.t.Helper()
	require.NoError(h.t, h.sessions.Set(context.Background(), &session.Session{Key: key, Flow: f}))
}

func (h *harness) lastText() string {
	return h.transport.last().msg.Text
}

func (h *harness) say(key string, args ...any) string {
	return h.engine.printer.Sprintf(key, args...)
}

func (h *harness) put(rec *record.Record) {
	if rec.Ledger == "" {
		rec.Ledger = "main"
	}
	h.repo.Put(rec)
}

func TestEngine_CreateOrderScenario(t *testing.T) {
	h := newHarness(t)

	h.text(buyer, "/start")
	assert.Equal(t, session.Idle{}, h.flow(buyer))
	assert.Equal(t, h.say(msgMenu), h.lastText())

	h.tap(buyer, cbCreateOrder)
	assert.Equal(t, session.CreatingOrder{Step: session.OrderID}, h.flow(buyer))

	h.text(buyer, orderID)
	assert.Equal(t, session.CreatingOrder{Step: session.OrderProof, OrderID: orderID}, h.flow(buyer))

	h.text(buyer, "here is my proof")
	assert.Equal(t, session.CreatingOrder{Step: session.OrderProof, OrderID: orderID}, h.flow(buyer))
	assert.Equal(t, h.say(invalidPrefix+fieldProof), h.lastText())

	h.image(buyer, "photo-1")
	assert.Equal(t, session.CreatingOrder{
		Step:     session.OrderPayPal,
		OrderID:  orderID,
		ProofRef: "photo-1",
	}, h.flow(buyer))

	h.text(buyer, "a@b.com")
	assert.Equal(t, session.Idle{}, h.flow(buyer))

	rec := h.repo.Snapshot("main", orderID)
	require.NotNil(t, rec)
	assert.Equal(t, status.Pending, rec.Status)
	assert.Equal(t, "a@b.com", rec.PayPal)
	assert.Equal(t, buyer, rec.OwnerKey)
	assert.Equal(t, "photo-1", rec.ProofRef)

	want, _ := status.ColorFor(status.Pending)
	require.NotNil(t, rec.Color)
	assert.Equal(t, want, *rec.Color)

	assert.Equal(t, h.say(msgOrderCreated, orderID, status.Pending.Label()), h.lastText())
}

func TestEngine_CreateOrder_InvalidOrderIDReprompts(t *testing.T) {
	h := newHarness(t)

	h.tap(buyer, cbCreateOrder)
	h.text(buyer, "111-223344-6677889")

	assert.Equal(t, session.CreatingOrder{Step: session.OrderID}, h.flow(buyer))
	assert.Equal(t, h.say(invalidPrefix+"order_id"), h.lastText())
}

func TestEngine_CreateOrder_SuggestedPayPalAndMirror(t *testing.T) {
	h := newHarness(t)
	h.directory.byKey[buyer] = &participant.Profile{
		Channel:        buyer,
		PayPal:         "saved@b.com",
		ProfileLink:    "https://amazon.es/profile/x",
		Intermediaries: []string{"Ana"},
	}

	h.tap(buyer, cbCreateOrder)
	h.text(buyer, orderID)
	h.image(buyer, "photo-1")

	f, ok := h.flow(buyer).(session.CreatingOrder)
	require.True(t, ok)
	assert.Equal(t, session.OrderPayPalChoice, f.Step)
	assert.Equal(t, "saved@b.com", f.SuggestedPayPal)

	h.text(buyer, "maybe")
	assert.Equal(t, session.OrderPayPalChoice, h.flow(buyer).(session.CreatingOrder).Step)

	h.tap(buyer, cbPayPalKeep)
	assert.Equal(t, session.Idle{}, h.flow(buyer))

	rec := h.repo.Snapshot("main", orderID)
	require.NotNil(t, rec)
	assert.Equal(t, "saved@b.com", rec.PayPal)
	assert.Equal(t, "https://amazon.es/profile/x", rec.ProfileLink)
	assert.Equal(t, "ana", rec.Mirror)

	mirror := h.repo.Snapshot("ana", orderID)
	require.NotNil(t, mirror)
	assert.Equal(t, status.Pending, mirror.Status)
}

func TestEngine_CreateOrder_ChangePayPal(t *testing.T) {
	h := newHarness(t)
	h.directory.byKey[buyer] = &participant.Profile{Channel: buyer, PayPal: "saved@b.com"}

	h.tap(buyer, cbCreateOrder)
	h.text(buyer, orderID)
	h.image(buyer, "photo-1")
	h.tap(buyer, cbPayPalChange)
	assert.Equal(t, session.OrderPayPal, h.flow(buyer).(session.CreatingOrder).Step)

	h.text(buyer, "new@b.com")

	rec := h.repo.Snapshot("main", orderID)
	require.NotNil(t, rec)
	assert.Equal(t, "new@b.com", rec.PayPal)
}

func TestEngine_CreateOrder_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.put(&record.Record{Key: orderID, Status: status.Paid})

	h.tap(buyer, cbCreateOrder)
	h.text(buyer, orderID)

	assert.Equal(t, session.Idle{}, h.flow(buyer))
	assert.Equal(t, h.say(msgDuplicate, orderID), h.lastText())
	assert.Zero(t, h.repo.Writes)
}

func TestEngine_ReviewForUnknownOrder(t *testing.T) {
	h := newHarness(t)
	h.put(&record.Record{Key: "222-0000000-0000000", Status: status.Pending})

	h.tap(buyer, cbSubmitReview)
	h.text(buyer, "https://www.amazon.es/gp/customer-reviews/R1ABCDEF")
	assert.Equal(t, session.ReviewOrderID, h.flow(buyer).(session.SubmittingReview).Step)

	h.text(buyer, orderID)

	assert.Equal(t, session.Idle{}, h.flow(buyer))
	assert.Equal(t, h.say(msgNotFound, orderID), h.lastText())
	assert.Zero(t, h.repo.Writes)
	assert.Equal(t, status.Pending, h.repo.Snapshot("main", "222-0000000-0000000").Status)
}

func TestEngine_SubmitReview(t *testing.T) {
	h := newHarness(t)
	h.put(&record.Record{Key: orderID, Status: status.Pending, PayPal: "a@b.com", OwnerHandle: "maria"})

	h.tap(buyer, cbSubmitReview)
	h.text(buyer, "https://www.amazon.es/gp/customer-reviews/R1ABCDEF")
	h.text(buyer, orderID)

	f := h.flow(buyer).(session.SubmittingReview)
	assert.Equal(t, session.ReviewPayPalChoice, f.Step)
	assert.Equal(t, "a@b.com", f.SuggestedPayPal)

	h.tap(buyer, cbPayPalKeep)
	assert.Equal(t, session.Idle{}, h.flow(buyer))

	rec := h.repo.Snapshot("main", orderID)
	assert.Equal(t, status.ReviewUploaded, rec.Status)
	assert.Equal(t, "https://www.amazon.es/gp/customer-reviews/R1ABCDEF", rec.ReviewLink)

	want, _ := status.ColorFor(status.ReviewUploaded)
	assert.Equal(t, want, *rec.Color)

	notices := h.transport.to(opsChat)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].msg.Text, orderID)
	assert.Equal(t, cbAdvancePrefix+orderID, notices[0].msg.Keyboard[0][0].Data)
	assert.Equal(t, cbPaidPrefix+orderID, notices[0].msg.Keyboard[1][0].Data)
}

func TestEngine_CancelFromEveryState(t *testing.T) {
	flows := []session.Flow{
		session.Registering{Step: session.RegisterProfile},
		session.Registering{Step: session.RegisterPayPal, Profile: "p"},
		session.Registering{Step: session.RegisterIntermediaries, Profile: "p", PayPal: "a@b.com"},
		session.CreatingOrder{Step: session.OrderID},
		session.CreatingOrder{Step: session.OrderProof, OrderID: orderID},
		session.CreatingOrder{Step: session.OrderPayPalChoice, OrderID: orderID, ProofRef: "x", SuggestedPayPal: "a@b.com"},
		session.CreatingOrder{Step: session.OrderPayPal, OrderID: orderID, ProofRef: "x"},
		session.SubmittingReview{Step: session.ReviewLink},
		session.SubmittingReview{Step: session.ReviewOrderID, ReviewLink: "l"},
		session.SubmittingReview{Step: session.ReviewPayPalChoice, ReviewLink: "l", OrderID: orderID, SuggestedPayPal: "a@b.com"},
		session.SubmittingReview{Step: session.ReviewPayPal, ReviewLink: "l", OrderID: orderID},
		session.AdminMarkingPaid{Step: session.PaidOrderID},
		session.AdminMarkingPaid{Step: session.PaidChoice, OrderID: orderID},
		session.AwaitingProof{OrderID: orderID},
	}

	inputs := map[string]func(h *harness, key string){
		"Text":     func(h *harness, key string) { h.text(key, "Cancelar") },
		"Command":  func(h *harness, key string) { h.text(key, "/cancel") },
		"Callback": func(h *harness, key string) { h.tap(key, cbCancel) },
	}

	for name, send := range inputs {
		for _, f := range flows {
			t.Run(name+"/"+string(f.Kind()), func(t *testing.T) {
				h := newHarness(t)
				h.put(&record.Record{Key: orderID, Status: status.Pending})

				h.setFlow(admin, f)
				send(h, admin)

				assert.Equal(t, session.Idle{}, h.flow(admin))
				assert.Equal(t, h.say(msgCancelled), h.lastText())
				assert.Zero(t, h.repo.Writes)
				assert.Equal(t, status.Pending, h.repo.Snapshot("main", orderID).Status)
			})
		}
	}
}

func TestEngine_MenuResetsAndRendersMenu(t *testing.T) {
	h := newHarness(t)
	h.setFlow(buyer, session.CreatingOrder{Step: session.OrderProof, OrderID: orderID})

	h.text(buyer, "MENU")

	assert.Equal(t, session.Idle{}, h.flow(buyer))
	last := h.transport.last()
	assert.Equal(t, h.say(msgMenu), last.msg.Text)
	assert.Len(t, last.msg.Keyboard, 3)
}

func TestEngine_AdminMenuHasPrivilegedActions(t *testing.T) {
	h := newHarness(t)

	h.text(admin, "/start")

	assert.Len(t, h.transport.last().msg.Keyboard, 5)
}

func TestEngine_TimeoutResetsToIdle(t *testing.T) {
	var now atomic.Pointer[time.Time]
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now.Store(&start)

	h := newHarness(t, session.WithClock(func() time.Time { return *now.Load() }))

	h.tap(buyer, cbCreateOrder)
	h.text(buyer, orderID)
	require.Equal(t, session.OrderProof, h.flow(buyer).(session.CreatingOrder).Step)

	later := start.Add(5 * time.Minute)
	now.Store(&later)

	h.image(buyer, "photo-1")

	assert.Equal(t, session.Idle{}, h.flow(buyer))

	sent := h.transport.to(buyer)
	require.GreaterOrEqual(t, len(sent), 2)
	assert.Equal(t, h.say(msgExpired), sent[len(sent)-2].msg.Text)
	assert.Equal(t, h.say(msgMenu), sent[len(sent)-1].msg.Text)
	assert.Zero(t, h.repo.Count("main"))
}

func TestEngine_AdminMarkPaidWithProof(t *testing.T) {
	h := newHarness(t)
	h.put(&record.Record{Key: orderID, Status: status.ReviewForwarded, OwnerChat: buyer})

	h.tap(admin, cbMarkPaid)
	assert.Equal(t, session.AdminMarkingPaid{Step: session.PaidOrderID}, h.flow(admin))

	h.text(admin, orderID)
	assert.Equal(t, session.AdminMarkingPaid{Step: session.PaidChoice, OrderID: orderID}, h.flow(admin))

	h.tap(admin, cbPaidProof)
	assert.Equal(t, session.AwaitingProof{OrderID: orderID}, h.flow(admin))

	h.text(admin, "no image")
	assert.Equal(t, session.AwaitingProof{OrderID: orderID}, h.flow(admin))

	h.image(admin, "receipt-1")
	assert.Equal(t, session.Idle{}, h.flow(admin))

	rec := h.repo.Snapshot("main", orderID)
	assert.Equal(t, status.Paid, rec.Status)
	assert.True(t, rec.Paid)
	assert.Equal(t, "receipt-1", rec.PaymentProofRef)

	toBuyer := h.transport.to(buyer)
	require.Len(t, toBuyer, 2)
	assert.Equal(t, h.say(msgPaidOwnerNotice, orderID), toBuyer[0].msg.Text)
	assert.Equal(t, "receipt-1", toBuyer[1].image)
}

func TestEngine_AdminMarkPaidWithoutProofFindsOwnerByHandle(t *testing.T) {
	h := newHarness(t)
	h.directory.byKey[buyer] = &participant.Profile{Channel: buyer, Handle: "maria"}
	h.put(&record.Record{Key: orderID, Status: status.ReviewForwarded, OwnerHandle: "maria"})

	h.tap(admin, cbPaidPrefix+orderID)
	assert.Equal(t, session.AdminMarkingPaid{Step: session.PaidChoice, OrderID: orderID}, h.flow(admin))

	h.tap(admin, cbPaidNoProof)

	assert.Equal(t, session.Idle{}, h.flow(admin))
	assert.Equal(t, status.Paid, h.repo.Snapshot("main", orderID).Status)

	toBuyer := h.transport.to(buyer)
	require.Len(t, toBuyer, 1)
	assert.Equal(t, h.say(msgPaidOwnerNotice, orderID), toBuyer[0].msg.Text)
}

func TestEngine_PrivilegedActionsDenied(t *testing.T) {
	tests := []struct {
		name string
		send func(h *harness)
	}{
		{"MarkPaidMenu", func(h *harness) { h.tap(buyer, cbMarkPaid) }},
		{"Pending", func(h *harness) { h.text(buyer, "/pending") }},
		{"Advance", func(h *harness) { h.tap(buyer, cbAdvancePrefix+orderID) }},
		{"PaidButton", func(h *harness) { h.tap(buyer, cbPaidPrefix+orderID) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.put(&record.Record{Key: orderID, Status: status.ReviewUploaded})

			tt.send(h)

			assert.Equal(t, session.Idle{}, h.flow(buyer))
			assert.Equal(t, h.say(msgDenied), h.lastText())
			assert.Zero(t, h.repo.Writes)
		})
	}
}

func TestEngine_AdvanceReview(t *testing.T) {
	h := newHarness(t)
	h.put(&record.Record{Key: orderID, Status: status.ReviewUploaded})

	h.tap(admin, cbAdvancePrefix+orderID)

	rec := h.repo.Snapshot("main", orderID)
	assert.Equal(t, status.ReviewForwarded, rec.Status)
	assert.Equal(t, h.say(msgAdvanceDone, orderID, status.ReviewForwarded.Label()), h.lastText())

	writes := h.repo.Writes
	h.tap(admin, cbAdvancePrefix+orderID)

	assert.Equal(t, writes, h.repo.Writes)
	assert.Equal(t, h.say(msgAdvanceSkipped, orderID, status.ReviewForwarded.Label()), h.lastText())
}

func TestEngine_PendingList(t *testing.T) {
	h := newHarness(t)

	h.text(admin, "/pending")
	assert.Equal(t, h.say(msgPendingEmpty), h.lastText())

	h.put(&record.Record{Key: orderID, Status: status.ReviewUploaded, ReviewLink: "https://amazon.es/review/R1"})
	h.put(&record.Record{Key: "222-0000000-0000000", Status: status.Paid})

	h.tap(admin, cbPending)

	text := h.lastText()
	assert.Contains(t, text, h.say(msgPendingHeader, 1))
	assert.Contains(t, text, orderID)
	assert.NotContains(t, text, "222-0000000-0000000")
}

func TestEngine_Registering(t *testing.T) {
	h := newHarness(t)

	h.tap(buyer, cbRegister)
	h.text(buyer, "")
	assert.Equal(t, session.Registering{Step: session.RegisterProfile}, h.flow(buyer))

	h.text(buyer, "https://www.amazon.es/gp/profile/abc")
	h.text(buyer, "not-an-email")
	assert.Equal(t, session.RegisterPayPal, h.flow(buyer).(session.Registering).Step)
	assert.Equal(t, h.say(invalidPrefix+"paypal"), h.lastText())

	h.text(buyer, "maria@b.com")
	h.text(buyer, "@ana, luis y @pepe")

	assert.Equal(t, session.Idle{}, h.flow(buyer))
	require.Len(t, h.directory.upserts, 1)

	got := h.directory.upserts[0]
	assert.Equal(t, buyer, got.Channel)
	assert.Equal(t, "maria@b.com", got.PayPal)
	assert.Equal(t, "https://www.amazon.es/gp/profile/abc", got.ProfileLink)
	assert.Equal(t, []string{"ana", "luis", "pepe"}, got.Intermediaries)
}

func TestEngine_RepositoryFailureResets(t *testing.T) {
	h := newHarness(t)
	h.repo.Fail("Append", orderID, errors.New("sheet unavailable"))

	h.tap(buyer, cbCreateOrder)
	h.text(buyer, orderID)
	h.image(buyer, "photo-1")
	h.text(buyer, "a@b.com")

	assert.Equal(t, session.Idle{}, h.flow(buyer))
	assert.Equal(t, h.say(msgFailure), h.lastText())
	assert.Zero(t, h.repo.Count("main"))
}

func TestEngine_ProofsNeverStoreDownloadLinks(t *testing.T) {
	h := newHarness(t)
	h.directory.byKey[buyer] = &participant.Profile{Channel: buyer, PayPal: "saved@b.com"}

	h.tap(buyer, cbCreateOrder)
	h.text(buyer, orderID)
	h.image(buyer, "AgACAgQAAxkBAAI")
	h.tap(buyer, cbPayPalKeep)

	h.tap(admin, cbPaidPrefix+orderID)
	h.tap(admin, cbPaidProof)
	h.image(admin, "AgACAgQAAxkBAAJ")

	rec := h.repo.Snapshot("main", orderID)
	require.NotNil(t, rec)
	assert.Equal(t, "AgACAgQAAxkBAAI", rec.ProofRef)
	assert.Equal(t, "AgACAgQAAxkBAAJ", rec.PaymentProofRef)

	for _, ref := range []string{rec.ProofRef, rec.PaymentProofRef} {
		assert.NotContains(t, ref, botToken)
		assert.NotContains(t, ref, "/file/bot")
	}
}

type panickingDirectory struct{ *fakeDirectory }

func (panickingDirectory) FindByChannel(context.Context, string) (*participant.Profile, error) {
	panic("boom")
}

func TestEngine_PanicIsContained(t *testing.T) {
	h := newHarness(t)
	h.engine.directory = panickingDirectory{h.directory}

	h.tap(buyer, cbCreateOrder)
	h.text(buyer, orderID)
	h.image(buyer, "photo-1")

	assert.Equal(t, session.Idle{}, h.flow(buyer))
	assert.Equal(t, h.say(msgFailure), h.lastText())
}

func TestEngine_SessionsAreIndependent(t *testing.T) {
	h := newHarness(t)

	h.tap(buyer, cbCreateOrder)
	h.tap("101", cbSubmitReview)
	h.text(buyer, orderID)

	assert.Equal(t, session.OrderProof, h.flow(buyer).(session.CreatingOrder).Step)
	assert.Equal(t, session.SubmittingReview{Step: session.ReviewLink}, h.flow("101"))
}

func (h *harness) rejections(key string) int {
	h.t.Helper()

	s, err := h.store.Load(context.Background(), key)
	require.NoError(h.t, err)

	return s.Rejections
}

func TestEngine_RepeatedInvalidInputEndsFlow(t *testing.T) {
	h := newHarness(t)

	h.tap(buyer, cbCreateOrder)

	h.text(buyer, "123")
	h.text(buyer, "abc")
	assert.Equal(t, session.CreatingOrder{Step: session.OrderID}, h.flow(buyer))
	assert.Equal(t, 2, h.rejections(buyer))
	assert.Equal(t, h.say(invalidPrefix+"order_id"), h.lastText())

	h.text(buyer, "111-22-33")

	assert.Equal(t, session.Idle{}, h.flow(buyer))
	assert.Equal(t, h.say(msgTooManyAttempts), h.lastText())
	assert.Len(t, h.transport.last().msg.Keyboard, 3)
	assert.Zero(t, h.repo.Writes)
}

func TestEngine_AcceptedAnswerClearsRejections(t *testing.T) {
	h := newHarness(t)

	h.tap(buyer, cbCreateOrder)
	h.text(buyer, "123")
	h.text(buyer, "abc")
	h.text(buyer, orderID)

	assert.Equal(t, session.CreatingOrder{Step: session.OrderProof, OrderID: orderID}, h.flow(buyer))
	assert.Zero(t, h.rejections(buyer))

	h.text(buyer, "no image")
	h.text(buyer, "still no image")

	assert.Equal(t, session.OrderProof, h.flow(buyer).(session.CreatingOrder).Step)
	assert.Equal(t, 2, h.rejections(buyer))
}

func TestEngine_RejectionLimitIsConfigurable(t *testing.T) {
	h := newHarness(t)
	h.engine.cfg.MaxRejections = 1

	h.tap(buyer, cbRegister)
	h.text(buyer, "")

	assert.Equal(t, session.Idle{}, h.flow(buyer))
	assert.Equal(t, h.say(msgTooManyAttempts), h.lastText())
}

func TestEngine_RegisteringAcceptsProfileName(t *testing.T) {
	h := newHarness(t)

	h.tap(buyer, cbRegister)
	h.text(buyer, "María Compras")

	f, ok := h.flow(buyer).(session.Registering)
	require.True(t, ok)
	assert.Equal(t, session.RegisterPayPal, f.Step)
	assert.Equal(t, "María Compras", f.Profile)
}

type panickingAck struct{ *fakeTransport }

func (panickingAck) AnswerCallback(context.Context, string) error {
	panic("ack failed")
}

func TestEngine_PanicWhileAnsweringCallbackIsContained(t *testing.T) {
	h := newHarness(t)
	h.setFlow(buyer, session.CreatingOrder{Step: session.OrderProof, OrderID: orderID})
	h.engine.transport = panickingAck{h.transport}

	require.NotPanics(t, func() { h.tap(buyer, cbPayPalKeep) })

	assert.Equal(t, session.Idle{}, h.flow(buyer))
	assert.Equal(t, h.say(msgFailure), h.lastText())
}
