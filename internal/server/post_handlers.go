package server

import (
	"fmt"
	"strconv"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) postForm(c *fiber.Ctx, isEdit bool, postID uint, values postFormValues, errs map[string]string) error {
	groups, err := s.groupService.List(c.UserContext())
	if err != nil {
		return err
	}
	title := "New post"
	if isEdit {
		title = "Edit post"
	}
	return s.render(c, fiber.StatusOK, "posts/create_post", postFormView{
		pageView:      s.page(c, title),
		IsEdit:        isEdit,
		PostID:        postID,
		Form:          values,
		Errors:        errs,
		Groups:        groups,
		ImagesEnabled: s.imagesEnabled(middleware.IdentityFrom(c)),
	})
}

// postInput reads the submitted form. Uploads are dropped while the
// post_images flag is off for the viewer.
func (s *Server) postInput(c *fiber.Ctx) (service.PostInput, error) {
	in := service.PostInput{
		Text:  c.FormValue("text"),
		Group: c.FormValue("group"),
	}
	if !s.imagesEnabled(middleware.IdentityFrom(c)) {
		return in, nil
	}
	upload, err := readUpload(c, "image", s.config.MaxImageBytes)
	if err != nil {
		return in, err
	}
	in.Image = upload
	return in, nil
}

// CreatePostForm renders an empty post form.
func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	return s.postForm(c, false, 0, postFormValues{}, nil)
}

// CreatePost publishes a post and sends the author to their profile.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	viewer := middleware.IdentityFrom(c)
	in, err := s.postInput(c)
	if err != nil {
		return err
	}

	if _, err := s.postService.Create(c.UserContext(), viewer, in); err != nil {
		if errs, ok := formErrors(err); ok {
			return s.postForm(c, false, 0, postFormValues{Text: in.Text, Group: in.Group}, errs)
		}
		return err
	}
	return c.Redirect(fmt.Sprintf("/profile/%s/", viewer.Username), fiber.StatusFound)
}

// EditPostForm renders the form filled with the post. Anyone but the author
// is sent back to the post.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !middleware.IdentityFrom(c).Is(post.AuthorID) {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}
	return s.postForm(c, true, post.ID, formValuesFor(post), nil)
}

// EditPost saves the changes and redirects to the post.
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	in, err := s.postInput(c)
	if err != nil {
		return err
	}

	post, err := s.postService.Update(c.UserContext(), middleware.IdentityFrom(c), id, in)
	switch {
	case err == nil:
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	case service.IsNotAuthor(err):
		return c.Redirect(postURL(id), fiber.StatusFound)
	}
	if errs, ok := formErrors(err); ok {
		return s.postForm(c, true, id, postFormValues{Text: in.Text, Group: in.Group}, errs)
	}
	return err
}

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func formValuesFor(post *models.Post) postFormValues {
	values := postFormValues{Text: post.Text}
	if post.GroupID != nil {
		values.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return values
}
