package game

// RuleError is a domain-rule violation. Its value is the error kind sent on
// the wire verbatim; the room state is unchanged when one is returned.
type RuleError string

func (e RuleError) Error() string { return string(e) }

const (
	ErrGameAlreadyStarted              RuleError = "gameAlreadyStarted"
	ErrRoomFull                        RuleError = "roomFull"
	ErrNotEnoughPlayers                RuleError = "notEnoughPlayers"
	ErrNotYourTurn                     RuleError = "notYourTurn"
	ErrCardNotInHand                   RuleError = "cardNotInHand"
	ErrMustMatchRequiredCount          RuleError = "mustMatchRequiredCount"
	ErrLeaderSuitMismatch              RuleError = "leaderSuitMismatch"
	ErrInvalidFourCardThrow            RuleError = "invalidFourCardThrow"
	ErrOpponentsTooShort               RuleError = "opponentsTooShort"
	ErrRoundNotActive                  RuleError = "roundNotActive"
	ErrTrickAlreadyStarted             RuleError = "trickAlreadyStarted"
	ErrCombinationCardsMissing         RuleError = "combinationCardsMissing"
	ErrCombinationAlreadyDeclared      RuleError = "combinationAlreadyDeclared"
	ErrCombinationNotEnabled           RuleError = "combinationNotEnabled"
	ErrUnknownCombination              RuleError = "unknownCombination"
	ErrAwaitReveal                     RuleError = "awaitReveal"
	ErrRoundMismatch                   RuleError = "roundMismatch"
	ErrTrickMismatch                   RuleError = "trickMismatch"
	ErrEarlyTurnInsufficientCards      RuleError = "earlyTurnInsufficientCards"
	ErrEarlyTurnRequiresAce            RuleError = "earlyTurnRequiresAce"
	ErrEarlyTurnRequiresThreeHighCards RuleError = "earlyTurnRequiresThreeHighCards"
)
