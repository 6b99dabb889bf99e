package navigator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/sahilchouksey/study-notes-bot/services"
)

// Screen is the text and keyboard shown for a state
type Screen struct {
	Text     string
	Keyboard *services.Keyboard
}

func (s Screen) withNotice(notice string) Screen {
	if notice != "" {
		s.Text = notice + "\n\n" + s.Text
	}
	return s
}

// render builds the menu for the session's state. It only reads the catalog, so calling it
// twice for the same session yields the same screen.
func (n *Navigator) render(ctx context.Context, userID uint, s *Session) (Screen, error) {
	switch s.State {
	case StateAbout:
		return aboutScreen(), nil

	case StateSubjectList:
		subjects, err := n.catalog.ListSubjects(ctx)
		if err != nil {
			return Screen{}, err
		}
		items := make([]listItem, len(subjects))
		for i, sub := range subjects {
			items[i] = listItem{ID: sub.ID, Label: sub.Name}
		}
		return listScreen("📚 Choose a subject:", LevelSubject, items, nil), nil

	case StateTermList:
		subject, err := n.catalog.GetSubject(ctx, s.ancestor(LevelSubject))
		if err != nil {
			return Screen{}, err
		}
		terms, err := n.catalog.ListTerms(ctx, subject.ID)
		if err != nil {
			return Screen{}, err
		}
		items := make([]listItem, len(terms))
		for i, term := range terms {
			items[i] = listItem{ID: term.ID, Label: term.Name}
		}
		return listScreen(fmt.Sprintf("📅 %s\nChoose a term:", subject.Name), LevelTerm, items, nil), nil

	case StateCourseList:
		term, err := n.catalog.GetTerm(ctx, s.ancestor(LevelTerm))
		if err != nil {
			return Screen{}, err
		}
		courses, err := n.catalog.ListCourses(ctx, term.ID)
		if err != nil {
			return Screen{}, err
		}
		items := make([]listItem, len(courses))
		for i, course := range courses {
			items[i] = listItem{ID: course.ID, Label: course.Name}
		}
		return listScreen(fmt.Sprintf("📖 %s\nChoose a course:", term.Name), LevelCourse, items, nil), nil

	case StateInstructorList:
		course, err := n.catalog.GetCourse(ctx, s.ancestor(LevelCourse))
		if err != nil {
			return Screen{}, err
		}
		instructors, err := n.catalog.ListInstructors(ctx, course.ID)
		if err != nil {
			return Screen{}, err
		}
		subscribed, err := n.subscriptions.IsSubscribed(ctx, userID, course.ID)
		if err != nil {
			return Screen{}, err
		}
		items := make([]listItem, len(instructors))
		for i, inst := range instructors {
			items[i] = listItem{ID: inst.ID, Label: inst.Name}
		}
		return listScreen(
			fmt.Sprintf("👨‍🏫 %s\nChoose an instructor:", course.Name),
			LevelInstructor,
			items,
			[]services.Button{subscriptionButton(course.ID, subscribed)},
		), nil

	case StateDocumentList:
		instructor, err := n.catalog.GetInstructor(ctx, s.ancestor(LevelInstructor))
		if err != nil {
			return Screen{}, err
		}
		docs, err := n.catalog.ListDocuments(ctx, instructor.ID)
		if err != nil {
			return Screen{}, err
		}
		return documentListScreen(instructor, docs), nil

	case StateRatingPrompt:
		docCtx, err := n.catalog.DocumentContext(ctx, s.PendingDocumentID)
		if err != nil {
			return Screen{}, err
		}
		return ratingScreen(docCtx), nil

	default:
		return rootScreen(), nil
	}
}

type listItem struct {
	ID    uint
	Label string
}

func rootScreen() Screen {
	return Screen{
		Text: textWelcome,
		Keyboard: &services.Keyboard{Rows: [][]services.Button{
			{{Text: labelBrowse, Data: Encode(Browse{})}},
			{{Text: labelAbout, Data: Encode(About{})}},
		}},
	}
}

func aboutScreen() Screen {
	return Screen{
		Text:     textAbout,
		Keyboard: &services.Keyboard{Rows: [][]services.Button{{backButton()}}},
	}
}

func listScreen(title string, level Level, items []listItem, extra []services.Button) Screen {
	rows := make([][]services.Button, 0, len(items)+2)
	for _, item := range items {
		rows = append(rows, []services.Button{{Text: item.Label, Data: Encode(Select{Level: level, ID: item.ID})}})
	}
	if len(extra) > 0 {
		rows = append(rows, extra)
	}
	rows = append(rows, []services.Button{backButton()})

	return Screen{Text: title, Keyboard: &services.Keyboard{Rows: rows}}
}

func documentListScreen(instructor *model.Instructor, docs []model.Document) Screen {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Notes by %s:\n", instructor.Name)

	items := make([]listItem, len(docs))
	for i, doc := range docs {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, doc.Title)
		fmt.Fprintf(&b, "   ✍️ %s", doc.Author)
		if !doc.WrittenAt.IsZero() {
			fmt.Fprintf(&b, " · %s", doc.WrittenAt.Format("2006/01/02"))
		}
		fmt.Fprintf(&b, "\n   ⭐ %s\n", ratingLine(&doc))
		items[i] = listItem{ID: doc.ID, Label: fmt.Sprintf("📥 %d. %s", i+1, doc.Title)}
	}

	return listScreen(b.String(), LevelDocument, items, nil)
}

func ratingScreen(docCtx *services.DocumentContext) Screen {
	doc := docCtx.Document

	var b strings.Builder
	fmt.Fprintf(&b, "📝 %s\n\n", doc.Title)
	fmt.Fprintf(&b, "📚 Subject: %s\n", docCtx.Subject.Name)
	fmt.Fprintf(&b, "📅 Term: %s\n", docCtx.Term.Name)
	fmt.Fprintf(&b, "📖 Course: %s\n", docCtx.Course.Name)
	fmt.Fprintf(&b, "👨‍🏫 Instructor: %s\n", docCtx.Instructor.Name)
	fmt.Fprintf(&b, "✍️ Author: %s\n", doc.Author)
	if !doc.WrittenAt.IsZero() {
		fmt.Fprintf(&b, "🗓 Written: %s\n", doc.WrittenAt.Format("2006/01/02"))
	}
	if d := strings.TrimSpace(doc.Description); d != "" {
		fmt.Fprintf(&b, "📌 %s\n", d)
	}
	fmt.Fprintf(&b, "⭐ Rating: %s\n", ratingLine(&doc))
	fmt.Fprintf(&b, "🔗 Reference: %s\n\n", services.DocumentReference(doc.ID))
	b.WriteString("How would you rate this note?")

	stars := make([]services.Button, 0, services.MaxRating)
	for v := services.MinRating; v <= services.MaxRating; v++ {
		stars = append(stars, services.Button{
			Text: strconv.Itoa(v) + "⭐",
			Data: Encode(Rate{DocumentID: doc.ID, Value: v}),
		})
	}

	return Screen{
		Text: b.String(),
		Keyboard: &services.Keyboard{Rows: [][]services.Button{
			stars,
			{backButton(), {Text: labelMainMenu, Data: Encode(Start{})}},
		}},
	}
}

func ratingLine(doc *model.Document) string {
	if doc.RatingCount == 0 {
		return "not rated yet"
	}
	return fmt.Sprintf("%.1f (%d ratings)", doc.AverageRating(), doc.RatingCount)
}

func subscriptionButton(courseID uint, subscribed bool) services.Button {
	label := labelSubscribe
	if subscribed {
		label = labelUnsubscribe
	}
	return services.Button{Text: label, Data: Encode(ToggleSubscription{CourseID: courseID})}
}

// errorScreen replaces a menu that could not be built. The chat keeps its previous position.
func errorScreen() Screen {
	return Screen{
		Text: noticeError,
		Keyboard: &services.Keyboard{Rows: [][]services.Button{
			{backButton(), {Text: labelMainMenu, Data: Encode(Start{})}},
		}},
	}
}

func backButton() services.Button {
	return services.Button{Text: labelBack, Data: Encode(Back{})}
}
