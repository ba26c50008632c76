// Package access holds the role capability matrix. The rules live in
// one pure function so every route enforces the same policy instead of
// scattering role comparisons across handlers.
package access

import (
	"cassette/core/fault"
	"cassette/model"
)

// Action is a capability an actor may or may not hold.
type Action int

const (
	UploadSong Action = iota + 1
	EditSong
	DeleteSong
	UploadAlbum
	EditAlbum
	DeleteAlbum
	FlagContent
	CreatePlaylist
	DeletePlaylist
	RateSong
	ManageUsers
	ManageQueue
)

func (a Action) String() string {
	switch a {
	case UploadSong:
		return "upload song"
	case EditSong:
		return "edit song"
	case DeleteSong:
		return "delete song"
	case UploadAlbum:
		return "upload album"
	case EditAlbum:
		return "edit album"
	case DeleteAlbum:
		return "delete album"
	case FlagContent:
		return "flag content"
	case CreatePlaylist:
		return "create playlist"
	case DeletePlaylist:
		return "delete playlist"
	case RateSong:
		return "rate song"
	case ManageUsers:
		return "manage users"
	case ManageQueue:
		return "manage queue"
	default:
		return "unknown action"
	}
}

// Authorize checks whether a role may perform an action. The owns flag
// states whether the target entity belongs to the actor; it is ignored
// for actions that do not depend on ownership. A denial is returned as
// an authorization failure, nil means allowed.
func Authorize(role model.Role, action Action, owns bool) error {
	if allowed(role, action, owns) {
		return nil
	}
	return fault.Newf(fault.Authorization, "%s is not allowed to %s", role, action)
}

func allowed(role model.Role, action Action, owns bool) bool {
	switch action {
	case UploadSong, EditSong, UploadAlbum, EditAlbum:
		// Creators manage their own content only; admins moderate but
		// never author.
		return role == model.RoleCreator && owns

	case DeleteSong, DeleteAlbum:
		if role == model.RoleAdmin {
			return true
		}
		return role == model.RoleCreator && owns

	case FlagContent:
		return role == model.RoleAdmin

	case CreatePlaylist:
		return role == model.RoleAdmin || owns

	case DeletePlaylist:
		if role == model.RoleAdmin {
			return true
		}
		return (role == model.RoleStandard || role == model.RoleCreator) && owns

	case RateSong:
		return role == model.RoleStandard || role == model.RoleCreator

	case ManageUsers:
		return role == model.RoleAdmin

	case ManageQueue:
		return owns

	default:
		return false
	}
}
