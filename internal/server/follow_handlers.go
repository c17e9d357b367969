package server

import (
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ProfileFollow subscribes the viewer to an author. Repeats and self-follows
// change nothing; every outcome except an unknown author lands on the profile.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	author, err := s.followService.Follow(c.UserContext(), middleware.IdentityFrom(c), c.Params("username"))
	return s.afterFollowChange(c, author, err)
}

// ProfileUnfollow removes the subscription if there is one.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	author, err := s.followService.Unfollow(c.UserContext(), middleware.IdentityFrom(c), c.Params("username"))
	return s.afterFollowChange(c, author, err)
}

func (s *Server) afterFollowChange(c *fiber.Ctx, author *models.User, err error) error {
	if err != nil && !models.HasCode(err, models.CodeValidation) {
		return err
	}
	username := c.Params("username")
	if author != nil {
		username = author.Username
	}
	return c.Redirect("/profile/"+username+"/", fiber.StatusFound)
}
