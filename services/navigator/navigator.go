package navigator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/sahilchouksey/study-notes-bot/services"
	"github.com/sahilchouksey/study-notes-bot/services/filestore"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"github.com/sahilchouksey/study-notes-bot/utils/pdfvalidation"
)

var (
	inputsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_navigator_inputs_total",
		Help: "Chat inputs handled by kind",
	}, []string{"kind"})

	documentDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_document_deliveries_total",
		Help: "Documents sent to chats by result",
	}, []string{"result"})
)

// Deps are the collaborators of a Navigator
type Deps struct {
	Catalog       *services.CatalogService
	Users         *services.UserService
	Subscriptions *services.SubscriptionService
	Ratings       *services.RatingService
	Files         filestore.Store
	Messenger     services.Messenger
	Sessions      SessionStore
	Log           *logger.Logger
}

// Navigator drives the per-chat menu state machine. Each inbound event is handled
// to completion: the session is loaded, advanced, saved and the resulting screen sent.
// No lock is held while talking to the messenger.
type Navigator struct {
	catalog       *services.CatalogService
	users         *services.UserService
	subscriptions *services.SubscriptionService
	ratings       *services.RatingService
	files         filestore.Store
	messenger     services.Messenger
	sessions      SessionStore
	log           *logger.Logger
	now           func() time.Time
}

func New(d Deps) *Navigator {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Navigator{
		catalog:       d.Catalog,
		users:         d.Users,
		subscriptions: d.Subscriptions,
		ratings:       d.Ratings,
		files:         d.Files,
		messenger:     d.Messenger,
		sessions:      d.Sessions,
		log:           log.With("component", "navigator"),
		now:           time.Now,
	}
}

// request carries the per-event working set through the transitions
type request struct {
	user    *model.User
	session *Session
	// failed is set when no menu could be rendered; the transition is then discarded
	failed bool
}

// outcome is what a transition wants shown. With replyTo set the screen is sent as a reply
// to an already delivered message.
type outcome struct {
	screen  Screen
	replyTo *services.MessageRef
}

// Handle processes one inbound event for a chat
func (n *Navigator) Handle(ctx context.Context, identity services.ChatIdentity, in Input) error {
	inputsTotal.WithLabelValues(in.inputKind()).Inc()

	user, err := n.users.Touch(ctx, identity)
	if err != nil {
		if ctx.Err() == nil {
			n.send(ctx, identity.ChatID, outcome{screen: Screen{Text: noticeError}})
		}
		return fmt.Errorf("failed to register chat %d: %w", identity.ChatID, err)
	}
	if user.Blocked {
		n.send(ctx, identity.ChatID, outcome{screen: Screen{Text: noticeBlocked}})
		return nil
	}

	session, err := n.sessions.Load(ctx, identity.ChatID)
	if err != nil {
		n.log.Warn("session unavailable, starting over", "chat_id", identity.ChatID, "error", err)
		session = NewSession(identity.ChatID)
	}

	prior := session.clone()
	r := &request{user: user, session: session}
	out := n.dispatch(ctx, r, in)

	// a newer event for this chat took over, its transition owns the session
	if err := ctx.Err(); err != nil {
		n.log.Debug("event abandoned", "chat_id", identity.ChatID, "input", in.inputKind(), "error", err)
		return nil
	}
	if r.failed {
		session = prior
	}

	session.UpdatedAt = n.now()
	if err := n.sessions.Save(ctx, session); err != nil {
		n.log.Warn("failed to save session", "chat_id", identity.ChatID, "error", err)
	}

	n.send(ctx, identity.ChatID, out)
	return nil
}

func (n *Navigator) dispatch(ctx context.Context, r *request, in Input) outcome {
	switch in := in.(type) {
	case Start:
		r.session.reset()
		return n.show(ctx, r, "")
	case DeepLink:
		return n.openDeepLink(ctx, r, in.DocumentID)
	case Browse:
		return n.browse(ctx, r)
	case About:
		r.session.reset()
		r.session.State = StateAbout
		return n.show(ctx, r, "")
	case Select:
		return n.selectItem(ctx, r, in)
	case Back:
		return n.back(ctx, r)
	case ToggleSubscription:
		return n.toggleSubscription(ctx, r, in)
	case Rate:
		return n.rate(ctx, r, in)
	case Text:
		if r.session.State == StateRatingPrompt {
			value, err := strconv.Atoi(strings.TrimSpace(in.Body))
			if err != nil {
				return n.show(ctx, r, noticeRateRange)
			}
			return n.rate(ctx, r, Rate{DocumentID: r.session.PendingDocumentID, Value: value})
		}
		return n.show(ctx, r, noticeUseButtons)
	default:
		return n.show(ctx, r, noticeUseButtons)
	}
}

func (n *Navigator) browse(ctx context.Context, r *request) outcome {
	subjects, err := n.catalog.ListSubjects(ctx)
	if err != nil {
		n.log.Error("failed to list subjects", "error", err)
		return n.show(ctx, r, noticeError)
	}
	if len(subjects) == 0 {
		return n.show(ctx, r, noticeNoItems)
	}

	r.session.reset()
	r.session.State = StateSubjectList
	return n.show(ctx, r, "")
}

func (n *Navigator) selectItem(ctx context.Context, r *request, in Select) outcome {
	level, ok := listLevel(r.session.State)
	if !ok || level != in.Level {
		return n.show(ctx, r, noticeUseButtons)
	}
	if level == LevelDocument {
		return n.openDocument(ctx, r, in.ID, true)
	}

	children, err := n.childCount(ctx, r.session, level, in.ID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return n.show(ctx, r, noticeNotFound)
	case err != nil:
		n.log.Error("failed to list children", "level", level.String(), "id", in.ID, "error", err)
		return n.show(ctx, r, noticeError)
	case children == 0:
		return n.show(ctx, r, noticeNoItems)
	}

	if !r.session.push(in.ID) {
		return n.show(ctx, r, noticeUseButtons)
	}
	r.session.State = listStateForDepth(len(r.session.Stack))
	return n.show(ctx, r, "")
}

// childCount verifies that id is a child of the currently selected parent and returns
// how many entries the next level would list
func (n *Navigator) childCount(ctx context.Context, s *Session, level Level, id uint) (int, error) {
	var (
		parentID uint
		count    int
	)
	switch level {
	case LevelSubject:
		if _, err := n.catalog.GetSubject(ctx, id); err != nil {
			return 0, err
		}
		terms, err := n.catalog.ListTerms(ctx, id)
		if err != nil {
			return 0, err
		}
		return len(terms), nil
	case LevelTerm:
		term, err := n.catalog.GetTerm(ctx, id)
		if err != nil {
			return 0, err
		}
		parentID = term.SubjectID
		courses, err := n.catalog.ListCourses(ctx, id)
		if err != nil {
			return 0, err
		}
		count = len(courses)
	case LevelCourse:
		course, err := n.catalog.GetCourse(ctx, id)
		if err != nil {
			return 0, err
		}
		parentID = course.TermID
		instructors, err := n.catalog.ListInstructors(ctx, id)
		if err != nil {
			return 0, err
		}
		count = len(instructors)
	case LevelInstructor:
		instructor, err := n.catalog.GetInstructor(ctx, id)
		if err != nil {
			return 0, err
		}
		parentID = instructor.CourseID
		docs, err := n.catalog.ListDocuments(ctx, id)
		if err != nil {
			return 0, err
		}
		count = len(docs)
	default:
		return 0, services.ErrNotFound
	}

	if parentID != s.ancestor(level-1) {
		return 0, fmt.Errorf("%s %d is not under the current menu: %w", level, id, services.ErrNotFound)
	}
	return count, nil
}

func (n *Navigator) back(ctx context.Context, r *request) outcome {
	s := r.session
	switch s.State {
	case StateRoot:
	case StateAbout, StateSubjectList:
		s.reset()
	case StateRatingPrompt:
		s.PendingDocumentID = 0
		if len(s.Stack) == MaxDepth {
			s.State = StateDocumentList
		} else {
			s.reset()
		}
	default:
		s.pop()
		s.State = listStateForDepth(len(s.Stack))
	}
	return n.show(ctx, r, "")
}

func (n *Navigator) toggleSubscription(ctx context.Context, r *request, in ToggleSubscription) outcome {
	if r.session.State != StateInstructorList || r.session.ancestor(LevelCourse) != in.CourseID {
		return n.show(ctx, r, noticeUseButtons)
	}

	subscribed, err := n.subscriptions.Toggle(ctx, r.user.ID, in.CourseID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		r.session.reset()
		return n.show(ctx, r, noticeNotFound)
	case err != nil:
		n.log.Error("failed to toggle subscription", "user_id", r.user.ID, "course_id", in.CourseID, "error", err)
		return n.show(ctx, r, noticeError)
	case subscribed:
		return n.show(ctx, r, noticeSubscribed)
	default:
		return n.show(ctx, r, noticeUnsubscribed)
	}
}

func (n *Navigator) rate(ctx context.Context, r *request, in Rate) outcome {
	if r.session.State != StateRatingPrompt || in.DocumentID != r.session.PendingDocumentID {
		return n.show(ctx, r, noticeUseButtons)
	}

	summary, err := n.ratings.RecordRating(ctx, r.user.ID, in.DocumentID, in.Value)
	switch {
	case errors.Is(err, services.ErrInvalidRating):
		return n.show(ctx, r, noticeRateRange)
	case errors.Is(err, services.ErrNotFound):
		r.session.reset()
		return n.show(ctx, r, noticeNotFound)
	case err != nil:
		n.log.Error("failed to record rating", "user_id", r.user.ID, "document_id", in.DocumentID, "error", err)
		return n.show(ctx, r, noticeError)
	}

	r.session.reset()
	return n.show(ctx, r, fmt.Sprintf(noticeRated, in.Value, summary.Average, summary.Count))
}

func (n *Navigator) openDeepLink(ctx context.Context, r *request, documentID uint) outcome {
	r.session.reset()
	return n.openDocument(ctx, r, documentID, false)
}

// openDocument delivers a document and moves to the rating prompt. On any failure the
// session stays where it was: the document list when picked from a menu, the main menu for deep links.
func (n *Navigator) openDocument(ctx context.Context, r *request, documentID uint, fromList bool) outcome {
	docCtx, err := n.catalog.DocumentContext(ctx, documentID)
	if err == nil && fromList && docCtx.Instructor.ID != r.session.ancestor(LevelInstructor) {
		err = services.ErrNotFound
	}
	if errors.Is(err, services.ErrNotFound) {
		return n.show(ctx, r, noticeNotFound)
	}
	if err != nil {
		n.log.Error("failed to load document", "document_id", documentID, "error", err)
		return n.show(ctx, r, noticeError)
	}

	ref, err := n.deliver(ctx, r.session.ChatID, docCtx)
	if err != nil {
		documentDeliveries.WithLabelValues("failed").Inc()
		n.log.Warn("document delivery failed", "chat_id", r.session.ChatID, "document_id", documentID, "error", err)
		return n.show(ctx, r, noticeDeliveryFailed)
	}
	documentDeliveries.WithLabelValues("sent").Inc()

	r.session.State = StateRatingPrompt
	r.session.PendingDocumentID = documentID
	return outcome{screen: ratingScreen(docCtx), replyTo: &ref}
}

func (n *Navigator) deliver(ctx context.Context, chatID int64, docCtx *services.DocumentContext) (services.MessageRef, error) {
	doc := docCtx.Document

	content, err := n.files.Open(ctx, doc.StorageRef)
	if err != nil {
		return services.MessageRef{}, fmt.Errorf("failed to read %q: %w", doc.StorageRef, err)
	}

	caption := doc.Title
	name := doc.FileName()
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		result, err := pdfvalidation.ValidatePDFBytes(content, pdfvalidation.NotesLimits)
		if err != nil {
			return services.MessageRef{}, err
		}
		if !result.Valid {
			return services.MessageRef{}, fmt.Errorf("document %d rejected: %s", doc.ID, result.Error)
		}
		caption = fmt.Sprintf("%s (%d pages)", doc.Title, result.PageCount)
	}

	return n.messenger.SendDocument(ctx, chatID, services.FileUpload{
		Name:    name,
		Bytes:   content,
		Caption: caption,
	})
}

// show renders the session's current state, prefixed with notice. If the state can no longer be
// rendered because its catalog entries vanished the chat is sent back to the main menu.
func (n *Navigator) show(ctx context.Context, r *request, notice string) outcome {
	screen, err := n.render(ctx, r.user.ID, r.session)
	switch {
	case err == nil:
		return outcome{screen: screen.withNotice(notice)}
	case errors.Is(err, services.ErrNotFound):
		r.session.reset()
		return outcome{screen: rootScreen().withNotice(noticeNotFound)}
	case ctx.Err() == nil:
		n.log.Error("failed to render menu", "state", string(r.session.State), "error", err)
	}
	r.failed = true
	return outcome{screen: errorScreen()}
}

func (n *Navigator) send(ctx context.Context, chatID int64, out outcome) {
	var err error
	if out.replyTo != nil {
		err = n.messenger.ReplyText(ctx, *out.replyTo, out.screen.Text, out.screen.Keyboard)
	} else {
		err = n.messenger.SendText(ctx, chatID, out.screen.Text, out.screen.Keyboard)
	}
	if err != nil {
		n.log.Warn("failed to send reply", "chat_id", chatID, "error", err)
	}
}
