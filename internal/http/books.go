package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/akulov/elib/internal/auth"
	"github.com/akulov/elib/internal/covers"
	"github.com/akulov/elib/internal/database"
	"github.com/akulov/elib/internal/database/books"
	"github.com/akulov/elib/internal/database/genres"
	"github.com/akulov/elib/internal/entities"
	"github.com/akulov/elib/internal/render"
)

// BooksController handles catalog listing, detail and management endpoints.
type BooksController struct {
	db       *database.Database
	books    *books.Repository
	genres   *genres.Repository
	covers   *covers.Store
	renderer *render.Renderer
	sessions *auth.SessionManager
	pageSize int
}

// NewBooksController creates a new catalog controller.
func NewBooksController(cfg RouterConfig) *BooksController {
	return &BooksController{
		db:       cfg.Database,
		books:    cfg.Books,
		genres:   cfg.Genres,
		covers:   cfg.Covers,
		renderer: cfg.Renderer,
		sessions: cfg.SessionManager,
		pageSize: cfg.PageSize,
	}
}

// bookForm holds the submitted book fields, raw values kept for backfilling
// the form after a validation failure.
type bookForm struct {
	Title            string
	ShortDescription string
	YearRaw          string
	PagesRaw         string
	Publisher        string
	Author           string
	Year             int
	Pages            int
	GenreIDs         []uint
}

// parseBookForm reads the book fields from the request. The numeric fields
// are validated against the catalog bounds: year within [1000, 2100], page
// count positive.
func parseBookForm(c *gin.Context) (bookForm, error) {
	form := bookForm{
		Title:            strings.TrimSpace(c.PostForm("title")),
		ShortDescription: strings.TrimSpace(c.PostForm("short_description")),
		YearRaw:          c.PostForm("year"),
		PagesRaw:         c.PostForm("pages"),
		Publisher:        strings.TrimSpace(c.PostForm("publisher")),
		Author:           strings.TrimSpace(c.PostForm("author")),
	}

	for _, raw := range c.PostFormArray("genres") {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			form.GenreIDs = append(form.GenreIDs, uint(id))
		}
	}

	year, yearErr := strconv.Atoi(strings.TrimSpace(form.YearRaw))
	pages, pagesErr := strconv.Atoi(strings.TrimSpace(form.PagesRaw))
	if yearErr != nil || pagesErr != nil || year < 1000 || year > 2100 || pages <= 0 {
		return form, errors.New("check the year and page count fields")
	}

	form.Year = year
	form.Pages = pages
	return form, nil
}

// Index renders the paginated catalog listing.
func (bc *BooksController) Index(c *gin.Context) {
	page := parsePage(c.Query("page"))

	items, total, err := bc.books.List(page, bc.pageSize)
	if err != nil {
		log.Printf("Failed to list books: %v", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	ids := make([]uint, 0, len(items))
	for _, b := range items {
		ids = append(ids, b.ID)
	}
	aggregates, err := bc.books.AggregatesFor(ids)
	if err != nil {
		log.Printf("Failed to load review aggregates: %v", err)
		aggregates = map[uint]books.Aggregates{}
	}

	user := auth.CurrentUser(c)
	c.HTML(http.StatusOK, "index", templateData(c, bc.sessions, "Catalog", gin.H{
		"Books":      items,
		"Aggregates": aggregates,
		"Pagination": NewPagination(page, bc.pageSize, total),
		"CanAdd":     user != nil && user.HasRole(entities.RoleAdmin),
		"CanEdit":    user != nil && user.HasRole(entities.RoleAdmin, entities.RoleModerator),
	}))
}

// NewForm renders the empty book creation form.
func (bc *BooksController) NewForm(c *gin.Context) {
	bc.renderBookForm(c, http.StatusOK, "create", nil, bookForm{}, nil)
}

// Create adds a book together with its cover upload and genre links. The
// whole write runs in one transaction; a cover file failure rolls everything
// back.
func (bc *BooksController) Create(c *gin.Context) {
	if requestTooLarge(c, bc.sessions) {
		return
	}
	form, validationErr := parseBookForm(c)

	data, mimeType, originalFilename, uploadErr := readCoverUpload(c)
	if uploadErr != nil {
		bc.sessions.AddFlash(c.Request, "danger", "A book cover was not uploaded.")
		bc.renderBookForm(c, http.StatusBadRequest, "create", nil, form, nil)
		return
	}

	if validationErr != nil {
		bc.sessions.AddFlash(c.Request, "danger", "Check the year and page count fields.")
		bc.renderBookForm(c, http.StatusBadRequest, "create", nil, form, nil)
		return
	}

	if err := bc.covers.Validate(data, mimeType); err != nil {
		bc.sessions.AddFlash(c.Request, "danger", coverUploadMessage(err))
		bc.renderBookForm(c, http.StatusBadRequest, "create", nil, form, nil)
		return
	}

	var book entities.Book
	err := bc.db.DB.Transaction(func(tx *gorm.DB) error {
		cover, err := bc.covers.Ingest(tx, data, mimeType, originalFilename)
		if err != nil {
			return err
		}

		book = entities.Book{
			Title:            form.Title,
			ShortDescription: form.ShortDescription,
			Year:             form.Year,
			Publisher:        form.Publisher,
			Author:           form.Author,
			Pages:            form.Pages,
			CoverID:          cover.ID,
		}
		if err := bc.books.Create(tx, &book); err != nil {
			return err
		}
		return bc.books.ReplaceGenres(tx, book.ID, form.GenreIDs)
	})
	if err != nil {
		log.Printf("Failed to create book: %v", err)
		bc.sessions.AddFlash(c.Request, "danger", "An error occurred while saving. Check the submitted values.")
		bc.renderBookForm(c, http.StatusBadRequest, "create", nil, form, nil)
		return
	}

	flashAndRedirect(c, bc.sessions, "success", "Book added.", bookPath(book.ID))
}

// EditForm renders the form backfilled with the stored book.
func (bc *BooksController) EditForm(c *gin.Context) {
	book, ok := bc.lookupBook(c)
	if !ok {
		return
	}

	form := bookForm{
		Title:            book.Title,
		ShortDescription: book.ShortDescription,
		YearRaw:          strconv.Itoa(book.Year),
		PagesRaw:         strconv.Itoa(book.Pages),
		Publisher:        book.Publisher,
		Author:           book.Author,
	}
	for _, bg := range book.Genres {
		form.GenreIDs = append(form.GenreIDs, bg.GenreID)
	}

	bc.renderBookForm(c, http.StatusOK, "edit", book, form, nil)
}

// Update saves the edited fields and replaces the genre links. The cover is
// not editable.
func (bc *BooksController) Update(c *gin.Context) {
	book, ok := bc.lookupBook(c)
	if !ok {
		return
	}

	form, err := parseBookForm(c)
	if err != nil {
		flashAndRedirect(c, bc.sessions, "danger", "Check the year and page count fields.", bookPath(book.ID)+"/edit")
		return
	}

	book.Title = form.Title
	book.ShortDescription = form.ShortDescription
	book.Year = form.Year
	book.Publisher = form.Publisher
	book.Author = form.Author
	book.Pages = form.Pages

	err = bc.db.DB.Transaction(func(tx *gorm.DB) error {
		if err := bc.books.Update(tx, book); err != nil {
			return err
		}
		return bc.books.ReplaceGenres(tx, book.ID, form.GenreIDs)
	})
	if err != nil {
		log.Printf("Failed to update book %d: %v", book.ID, err)
		flashAndRedirect(c, bc.sessions, "danger", "An error occurred while saving. Check the submitted values.", bookPath(book.ID)+"/edit")
		return
	}

	flashAndRedirect(c, bc.sessions, "success", "Changes saved.", bookPath(book.ID))
}

// Delete removes the book with its reviews and genre links, releasing the
// cover when this was the last book using it.
func (bc *BooksController) Delete(c *gin.Context) {
	book, ok := bc.lookupBook(c)
	if !ok {
		return
	}

	err := bc.db.DB.Transaction(func(tx *gorm.DB) error {
		if err := bc.books.Delete(tx, book.ID); err != nil {
			return err
		}
		return bc.covers.Release(tx, book.CoverID)
	})
	if err != nil {
		log.Printf("Failed to delete book %d: %v", book.ID, err)
		flashAndRedirect(c, bc.sessions, "danger", "Failed to delete the book. Try again later.", "/")
		return
	}

	flashAndRedirect(c, bc.sessions, "success", "Book deleted.", "/")
}

// View renders the book detail page: description as sanitized markdown,
// review aggregates, all reviews and the visitor's own review when present.
func (bc *BooksController) View(c *gin.Context) {
	book, ok := bc.lookupBook(c)
	if !ok {
		return
	}

	aggregates, err := bc.books.AggregatesFor([]uint{book.ID})
	if err != nil {
		log.Printf("Failed to load review aggregates for book %d: %v", book.ID, err)
		aggregates = map[uint]books.Aggregates{}
	}

	var myReview *entities.Review
	if userID := auth.GetUserID(c); userID != 0 {
		for i := range book.Reviews {
			if book.Reviews[i].UserID == userID {
				myReview = &book.Reviews[i]
				break
			}
		}
	}

	c.HTML(http.StatusOK, "book_view", templateData(c, bc.sessions, book.Title, gin.H{
		"Book":            book,
		"DescriptionHTML": bc.renderer.Markdown(book.ShortDescription),
		"Aggregates":      aggregates[book.ID],
		"MyReview":        myReview,
	}))
}

// lookupBook resolves the :id parameter; unknown books flash a notice and
// land on the index.
func (bc *BooksController) lookupBook(c *gin.Context) (*entities.Book, bool) {
	book, err := bc.books.GetByID(parseID(c.Param("id")))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Failed to load book: %v", err)
		}
		flashAndRedirect(c, bc.sessions, "warning", "Book not found.", "/")
		return nil, false
	}
	return book, true
}

func (bc *BooksController) renderBookForm(c *gin.Context, status int, mode string, book *entities.Book, form bookForm, selected []uint) {
	allGenres, err := bc.genres.List()
	if err != nil {
		log.Printf("Failed to list genres: %v", err)
	}

	if selected == nil {
		selected = form.GenreIDs
	}
	selectedSet := make(map[uint]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}

	title := "New book"
	if mode == "edit" {
		title = "Edit book"
	}

	c.HTML(status, "book_form", templateData(c, bc.sessions, title, gin.H{
		"Mode":           mode,
		"Book":           book,
		"Form":           form,
		"Genres":         allGenres,
		"SelectedGenres": selectedSet,
	}))
}

// readCoverUpload pulls the uploaded cover out of the multipart form.
func readCoverUpload(c *gin.Context) (data []byte, mimeType, originalFilename string, err error) {
	header, err := c.FormFile("cover")
	if err != nil {
		return nil, "", "", err
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", "", err
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, "", "", err
	}

	return data, header.Header.Get("Content-Type"), header.Filename, nil
}

// requestTooLarge reports whether the body was rejected by the upload size
// limit. Oversized uploads get a warning notice and land on the listing
// instead of a bare 413.
func requestTooLarge(c *gin.Context, sessions *auth.SessionManager) bool {
	err := c.Request.ParseMultipartForm(32 << 20)
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		flashAndRedirect(c, sessions, "warning", "The file is too large.", "/")
		return true
	}
	return false
}

// coverUploadMessage maps cover validation failures to user-facing wording.
func coverUploadMessage(err error) string {
	switch {
	case errors.Is(err, covers.ErrEmptyUpload):
		return "The cover file is empty."
	case errors.Is(err, covers.ErrDisallowedMIME):
		return "Disallowed cover file type. Allowed: JPEG/PNG/WebP."
	case errors.Is(err, covers.ErrUploadTooLarge):
		return "The cover file is too large."
	default:
		return "Failed to process the cover file."
	}
}

func bookPath(id uint) string {
	return "/books/" + strconv.FormatUint(uint64(id), 10)
}
