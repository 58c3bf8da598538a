package wallet

// Cadence payloads submitted through the wallet. Opaque blobs as far as
// the ledger is concerned; the chain contract owns their semantics.

const GetAgentIDsScript = `
  import AgentNFT from 0x8b32c5ecee9fe36f
  access(all) fun main(address: Address): [UInt64] {
      let account = getAccount(address)
      if let collectionRef = account.capabilities.borrow<&AgentNFT.Collection>(/public/AgentNFTCollection) {
          return collectionRef.getIDs()
      } else {
          return []
      }
  }
`

const GetUserBalanceScript = `
  import AgentNFT from 0x8b32c5ecee9fe36f
  access(all) fun main(address: Address): UFix64 {
      let account = getAccount(address)
      var totalCost: UFix64 = 0.0
      if let collectionRef = account.capabilities.borrow<&AgentNFT.Collection>(/public/AgentNFTCollection) {
          let agentIDs = collectionRef.getIDs()
          for agentID in agentIDs {
              let nftRef = collectionRef.borrowAgent(id: agentID)
              if nftRef.strategy.strategyType == "HighestAPY" {
                  totalCost = totalCost + 200.0
              } else if nftRef.strategy.strategyType == "RiskAdjustedYield" {
                  totalCost = totalCost + 200.0
              } else if nftRef.strategy.strategyType == "AutoCompoundOnly15P" {
                  totalCost = totalCost + 8.0
              } else if nftRef.strategy.strategyType == "AutoCompoundOnly5P-Farm1" {
                  totalCost = totalCost + 100.0
              } else if nftRef.strategy.strategyType == "AutoCompoundOnly5P-Farm2" {
                  totalCost = totalCost + 150.0
              } else {
                  totalCost = totalCost + 50.0
              }
          }
      }
      let initialBalance: UFix64 = 100.0
      if totalCost >= initialBalance {
          return 0.0
      } else {
          return initialBalance - totalCost
      }
  }
`

const MintAgentTransaction = `
  import AgentNFT from 0x8b32c5ecee9fe36f

  transaction(strategyType: String, riskTolerance: String, allocationPercent: UFix64, timeLockDays: UInt64, paymentAmount: UFix64) {
      prepare(signer: auth(Storage, Capabilities) &Account) {

          if signer.storage.borrow<&AgentNFT.Collection>(from: /storage/AgentNFTCollection) == nil {
              signer.storage.save(<-AgentNFT.createEmptyCollection(), to: /storage/AgentNFTCollection)
              let _ = signer.capabilities.unpublish(/public/AgentNFTCollection)
              signer.capabilities.publish(
                  signer.capabilities.storage.issue<&AgentNFT.Collection>(/storage/AgentNFTCollection),
                  at: /public/AgentNFTCollection
              )
          }

          let collection = signer.storage.borrow<&AgentNFT.Collection>(from: /storage/AgentNFTCollection)
              ?? panic("Could not borrow Collection")

          let strategy = AgentNFT.Strategy(
              strategyType: strategyType,
              riskTolerance: riskTolerance,
              allocationPercent: allocationPercent,
              timeLockDays: timeLockDays
          )

          let newNFT <- AgentNFT.mintNFT(strategy: strategy)
          let nftID = newNFT.id

          collection.deposit(token: <-newNFT)

          log("New Agent NFT minted with ID: ".concat(nftID.toString()).concat(" and strategy: ").concat(strategyType))
      }
  }
`

// MintPayload builds the mint transaction payload for a strategy.
func MintPayload(strategyType, riskTolerance string, allocationPercent string, timeLockDays uint64, paymentAmount string) Payload {
	return Payload{
		Cadence: MintAgentTransaction,
		Args: []any{
			strategyType,
			riskTolerance,
			allocationPercent,
			timeLockDays,
			paymentAmount,
		},
	}
}

// BalancePayload builds the balance query payload for an address.
func BalancePayload(address string) Payload {
	return Payload{
		Cadence: GetUserBalanceScript,
		Args:    []any{address},
	}
}
