// Package signup provides the client side of an account signup flow: the form
// state backing a signup form, a password policy, a registration client that
// talks to the backend API, and a submission controller that ties them together.
//
// Form state:
//   - Store owns a single FormState record (name, email, password, remember me,
//     feedback message). It is created explicitly and handed to consumers; there
//     is no package level state. Observers registered with Subscribe receive a
//     snapshot after every transition.
//
// Registration:
//   - RegistrationClient performs exactly one HTTP call per operation against
//     the register and google-login endpoints. On success the returned token
//     replaces whatever the TokenStore held before; on failure the error carries
//     the message from the response body, or a generic fallback.
//
// Submission:
//   - SubmissionController runs the Idle, Validating, Submitting, Success and
//     Failed states. Password policy failures never reach the network. Every
//     outcome ends up as a single feedback message on the Store. Only one
//     request may be in flight at a time; overlapping triggers are rejected
//     with ErrSubmissionInFlight.
package signup
