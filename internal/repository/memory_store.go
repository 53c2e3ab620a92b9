package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type memoryState struct {
	users      map[int64]domain.User
	categories map[int64]domain.Category
	tickets    map[int64]domain.Ticket
	replies    map[int64]domain.TicketReply

	userSeq     int64
	categorySeq int64
	ticketSeq   int64
	replySeq    int64
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:      make(map[int64]domain.User),
		categories: make(map[int64]domain.Category),
		tickets:    make(map[int64]domain.Ticket),
		replies:    make(map[int64]domain.TicketReply),
	}
}

func (s *memoryState) clone() *memoryState {
	out := *s
	out.users = make(map[int64]domain.User, len(s.users))
	for k, v := range s.users {
		out.users[k] = v
	}
	out.categories = make(map[int64]domain.Category, len(s.categories))
	for k, v := range s.categories {
		out.categories[k] = v
	}
	out.tickets = make(map[int64]domain.Ticket, len(s.tickets))
	for k, v := range s.tickets {
		out.tickets[k] = v
	}
	out.replies = make(map[int64]domain.TicketReply, len(s.replies))
	for k, v := range s.replies {
		out.replies[k] = v
	}
	return &out
}

// MemoryStore is a process-local Store. Transactions work on a snapshot
// that replaces the live state on commit, and are serialized with all
// other access through a single lock.
type MemoryStore struct {
	mu    *sync.Mutex
	state *memoryState
	inTx  bool
	now   func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:    &sync.Mutex{},
		state: newMemoryState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Tickets() TicketRepository      { return memoryTickets{s} }
func (s *MemoryStore) Replies() ReplyRepository       { return memoryReplies{s} }
func (s *MemoryStore) Categories() CategoryRepository { return memoryCategories{s} }
func (s *MemoryStore) Users() UserRepository          { return memoryUsers{s} }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{mu: s.mu, state: s.state.clone(), inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) userRef(id int64) *domain.UserRef {
	user, ok := s.state.users[id]
	if !ok {
		return nil
	}
	return &domain.UserRef{ID: user.ID, Name: user.Name}
}

func (s *MemoryStore) withProjections(t domain.Ticket) domain.Ticket {
	t.Category = nil
	if t.CategoryID != nil {
		if c, ok := s.state.categories[*t.CategoryID]; ok {
			t.Category = &c
		}
	}
	t.User = s.userRef(t.UserID)
	t.Replies = nil
	return t
}

type memoryTickets struct{ s *MemoryStore }

func (r memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	defer r.s.lock()()
	st := r.s.state

	if _, ok := st.users[ticket.UserID]; !ok {
		return ErrNotFound
	}
	if ticket.CategoryID != nil {
		if _, ok := st.categories[*ticket.CategoryID]; !ok {
			return ErrCategoryNotFound
		}
	}
	st.ticketSeq++
	now := r.s.now()
	ticket.ID = st.ticketSeq
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	stored := *ticket
	stored.Category, stored.User, stored.Replies = nil, nil, nil
	st.tickets[stored.ID] = stored
	return nil
}

func (r memoryTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	defer r.s.lock()()
	t, ok := r.s.state.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = r.s.withProjections(t)
	return &t, nil
}

func (r memoryTickets) GetForUpdate(_ context.Context, id int64) (*domain.Ticket, error) {
	defer r.s.lock()()
	t, ok := r.s.state.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r memoryTickets) List(_ context.Context, filter TicketFilter) (Page[domain.Ticket], error) {
	defer r.s.lock()()

	page, perPage := normalizePage(filter.Page, filter.PerPage)
	matched := make([]domain.Ticket, 0)
	for _, t := range r.s.state.tickets {
		if filter.Matches(&t) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	result := Page[domain.Ticket]{Page: page, PerPage: perPage, Total: int64(len(matched)), Items: []domain.Ticket{}}
	start := (page - 1) * perPage
	if start >= len(matched) {
		return result, nil
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	for _, t := range matched[start:end] {
		result.Items = append(result.Items, r.s.withProjections(t))
	}
	return result, nil
}

func (r memoryTickets) UpdateContent(_ context.Context, id int64, title, message string) error {
	defer r.s.lock()()
	t, ok := r.s.state.tickets[id]
	if !ok {
		return ErrNotFound
	}
	t.Title, t.Message, t.UpdatedAt = title, message, r.s.now()
	r.s.state.tickets[id] = t
	return nil
}

func (r memoryTickets) UpdateState(_ context.Context, id int64, state domain.TicketState) error {
	defer r.s.lock()()
	t, ok := r.s.state.tickets[id]
	if !ok {
		return ErrNotFound
	}
	t.State, t.UpdatedAt = state, r.s.now()
	r.s.state.tickets[id] = t
	return nil
}

func (r memoryTickets) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	if _, ok := r.s.state.tickets[id]; !ok {
		return ErrNotFound
	}
	for _, reply := range r.s.state.replies {
		if reply.TicketID == id {
			// mirrors the ticket_replies foreign key: replies must go first
			return ErrReferenced
		}
	}
	delete(r.s.state.tickets, id)
	return nil
}

type memoryReplies struct{ s *MemoryStore }

func (r memoryReplies) Create(_ context.Context, reply *domain.TicketReply) error {
	defer r.s.lock()()
	st := r.s.state
	if _, ok := st.tickets[reply.TicketID]; !ok {
		return ErrNotFound
	}
	if _, ok := st.users[reply.UserID]; !ok {
		return ErrNotFound
	}
	st.replySeq++
	reply.ID = st.replySeq
	reply.CreatedAt = r.s.now()

	stored := *reply
	stored.User = nil
	st.replies[stored.ID] = stored
	return nil
}

func (r memoryReplies) GetByID(_ context.Context, id int64) (*domain.TicketReply, error) {
	defer r.s.lock()()
	reply, ok := r.s.state.replies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &reply, nil
}

func (r memoryReplies) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketReply, error) {
	defer r.s.lock()()
	result := []domain.TicketReply{}
	for _, reply := range r.s.state.replies {
		if reply.TicketID == ticketID {
			reply.User = r.s.userRef(reply.UserID)
			result = append(result, reply)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r memoryReplies) CountByTicket(_ context.Context, ticketID int64) (int, error) {
	defer r.s.lock()()
	count := 0
	for _, reply := range r.s.state.replies {
		if reply.TicketID == ticketID {
			count++
		}
	}
	return count, nil
}

func (r memoryReplies) DeleteByTicket(_ context.Context, ticketID int64) (int64, error) {
	defer r.s.lock()()
	var removed int64
	for id, reply := range r.s.state.replies {
		if reply.TicketID == ticketID {
			delete(r.s.state.replies, id)
			removed++
		}
	}
	return removed, nil
}

func (r memoryReplies) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	if _, ok := r.s.state.replies[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.state.replies, id)
	return nil
}

type memoryCategories struct{ s *MemoryStore }

func (r memoryCategories) Create(_ context.Context, category *domain.Category) error {
	defer r.s.lock()()
	st := r.s.state
	st.categorySeq++
	now := r.s.now()
	category.ID = st.categorySeq
	category.CreatedAt = now
	category.UpdatedAt = now
	st.categories[category.ID] = *category
	return nil
}

func (r memoryCategories) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	defer r.s.lock()()
	category, ok := r.s.state.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &category, nil
}

func (r memoryCategories) List(ctx context.Context, page, perPage int) (Page[domain.Category], error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return Page[domain.Category]{}, err
	}
	page, perPage = normalizePage(page, perPage)
	result := Page[domain.Category]{Page: page, PerPage: perPage, Total: int64(len(all)), Items: []domain.Category{}}
	start := (page - 1) * perPage
	if start >= len(all) {
		return result, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	result.Items = append(result.Items, all[start:end]...)
	return result, nil
}

func (r memoryCategories) ListAll(_ context.Context) ([]domain.Category, error) {
	defer r.s.lock()()
	result := make([]domain.Category, 0, len(r.s.state.categories))
	for _, category := range r.s.state.categories {
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	st := r.s.state
	for _, existing := range st.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicate
		}
	}
	st.userSeq++
	now := r.s.now()
	user.ID = st.userSeq
	user.CreatedAt = now
	user.UpdatedAt = now
	st.users[user.ID] = *user
	return nil
}

func (r memoryUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	defer r.s.lock()()
	user, ok := r.s.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, user := range r.s.state.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}
