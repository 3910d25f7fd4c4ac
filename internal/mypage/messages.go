package mypage

import "fmt"

// DeleteConfirmPrompt is the question asked before an account is deleted.
const DeleteConfirmPrompt = "Do you really want to delete your account?"

const (
	msgLoginRequired   = "Login is required. Redirecting to the login page."
	msgLoadFailed      = "An error occurred while retrieving your details."
	msgUpdateSucceeded = "Your member information has been updated."
	msgUpdateFailed    = "An error occurred while updating your member information"
	msgLogoutSucceeded = "You have been logged out."
	msgLogoutFailed    = "An error occurred while logging out"
	msgDeleteSucceeded = "Your account has been deleted."
	msgDeleteFailed    = "An error occurred while deleting your account"
	msgPostsFailed     = "Could not open your posts. Please try again."
	msgBusy            = "A request is already in progress. Please wait."
)

// Heading is the page title for nickname.
func Heading(nickname string) string {
	return fmt.Sprintf("%s's details", nickname)
}

// withDetail appends the server supplied detail to a failure message.
func withDetail(prefix, detail string) string {
	if detail == "" {
		return prefix + "."
	}
	return prefix + ": " + detail
}
